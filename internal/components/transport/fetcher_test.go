package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"

	"github.com/stretchr/testify/require"
)

func TestFetcherGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/cyber+security":
			w.Header().Set("content-type", "text/html")
			w.Write([]byte(`<p class="imageCount">` + r.Header.Get("user-agent") + `</p>`))
		case "/blocked":
			w.WriteHeader(http.StatusForbidden)
		case "/slow":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewHTMLFetcher(FetcherOptions{Timeout: 500 * time.Millisecond}, telemetry.NoopAPI{})
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		res, err := fetcher.Get(ctx, server.URL+"/search/cyber+security", map[string]string{
			"user-agent": "test-agent/1.0",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Contains(t, string(res.Body), "test-agent/1.0")
	})

	t.Run("non-2xx", func(t *testing.T) {
		_, err := fetcher.Get(ctx, server.URL+"/blocked", nil)
		require.ErrorIs(t, err, ErrStatus)
		require.Contains(t, err.Error(), "403")
	})

	t.Run("timeout", func(t *testing.T) {
		start := time.Now()
		_, err := fetcher.Get(ctx, server.URL+"/slow", nil)
		require.Error(t, err)
		require.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestFetcherPassesGate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	fetcher := NewHTMLFetcher(FetcherOptions{
		Timeout: time.Second,
		Gate:    throttle.NewGate(60 * time.Millisecond),
	}, telemetry.NoopAPI{})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := fetcher.Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestDocumentFind(t *testing.T) {
	doc, err := NewDocument([]byte(`
		<div>
			<span class="MuiTypography-root MuiTypography-body1 css-1">1,234 results</span>
			<p class="ImageCount">99 images</p>
		</div>`))
	require.NoError(t, err)
	ctx := context.Background()

	texts, err := doc.Find(ctx, `span[class^="MuiTypography-root MuiTypography-body1"]`)
	require.NoError(t, err)
	require.Equal(t, []string{"1,234 results"}, texts)

	texts, err = doc.Find(ctx, `p[class*="image" i]`)
	require.NoError(t, err)
	require.Equal(t, []string{"99 images"}, texts)

	texts, err = doc.Find(ctx, ".missing")
	require.NoError(t, err)
	require.Empty(t, texts)
}
