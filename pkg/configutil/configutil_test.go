package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Keywords []string `json:"keywords"`
	Workers  int      `json:"workers"`
	Source   string   `json:"source"`
}

func writeFile(t *testing.T, path, contents string) {
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trendlens.json5")

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, path, `{
		// comments and trailing commas are fine
		keywords: ["local travel", "cyber security",],
		workers: 1,
		source: "shutterstock",
	}`)
	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Keywords: []string{"local travel", "cyber security"},
		Workers:  1,
		Source:   "shutterstock",
	}, cfg)

	writeFile(t, filepath.Join(dir, "trendlens.local.json5"), `{ workers: 4 }`)
	cfg, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, "shutterstock", cfg.Source)
	require.Len(t, cfg.Keywords, 2)
}

func TestReadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendlens.json5")
	writeFile(t, path, `{ workers: `)

	_, err := ReadConfig[testConfig](path)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("conf", "trendlens.local.json5"), LocalPath(filepath.Join("conf", "trendlens.json5")))
	require.Equal(t, "keywords.local", LocalPath("keywords"))
}
