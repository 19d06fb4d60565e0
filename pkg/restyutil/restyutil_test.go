package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestDumpResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-test", "1")
		w.Write([]byte(`<span>1,234 results</span>`))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := resty.New()
	DumpResponses(client, output)

	_, err = client.R().SetHeader("user-agent", "dump-test").Get(server.URL + "/search/cyber+security")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Regexp(t, `^0001-127\.0\.0\.1_\d+_search_cyber_security\.txt$`, entries[0].Name())

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(contents), "GET "+server.URL+"/search/cyber+security")
	require.Contains(t, string(contents), "User-Agent: dump-test")
	require.Contains(t, string(contents), "X-Test: 1")
	require.Contains(t, string(contents), "<span>1,234 results</span>")
}

func TestDumpDisabled(t *testing.T) {
	client := resty.New()
	DumpResponses(client, nil)
}
