package useragent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolRotates(t *testing.T) {
	pool := NewPool([]string{"a", "b", "c"})

	var got []string
	for i := 0; i < 7; i++ {
		got = append(got, pool.Next())
	}
	require.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, got)
}

func TestPoolDefaults(t *testing.T) {
	pool := NewPool(nil)
	require.Equal(t, len(DefaultPool), pool.Len())
	require.Equal(t, DefaultPool[0], pool.Next())
}

func TestPoolConcurrentUse(t *testing.T) {
	pool := NewPool([]string{"a", "b"})

	var mu sync.Mutex
	counts := map[string]int{}
	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ua := pool.Next()
			mu.Lock()
			counts[ua]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 50, counts["a"])
	require.Equal(t, 50, counts["b"])
}

func TestFixed(t *testing.T) {
	p := Fixed("test-agent")
	require.Equal(t, "test-agent", p.Next())
	require.Equal(t, "test-agent", p.Next())
}
