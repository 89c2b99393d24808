package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamcutter/simple-extract/internal/config"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadFileOverrides(t *testing.T) {
	path := write(t, `
output_dir = "/srv/extracted"
download_dir = "/srv/downloads"
no_clobber = true
quiet_fetch = true
fetch_timeout = "90s"

[tools]
7z = "7zz"
tar = "bsdtar"
`)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/extracted", cfg.OutputDir)
	assert.Equal(t, "/srv/downloads", cfg.DownloadDir)
	assert.True(t, cfg.NoClobber)
	assert.False(t, cfg.ForceDownload)
	assert.True(t, cfg.QuietFetch)
	assert.Equal(t, 90*time.Second, cfg.FetchTimeout)
	assert.Equal(t, map[string]string{"7z": "7zz", "tar": "bsdtar"}, cfg.Tools)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	_, err := config.LoadFile(write(t, `no_clober = true`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_clober")
}

func TestLoadFileRejectsMalformed(t *testing.T) {
	_, err := config.LoadFile(write(t, `output_dir = `))
	assert.Error(t, err)
}

func TestLoadFileRejectsNegativeTimeout(t *testing.T) {
	_, err := config.LoadFile(write(t, `fetch_timeout = "-1s"`))
	assert.Error(t, err)
}

func TestLoadHonorsEnv(t *testing.T) {
	path := write(t, `output_dir = "from-env"`)
	t.Setenv(config.EnvConfig, path)

	got, err := config.Path()
	require.NoError(t, err)
	assert.Equal(t, path, got)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OutputDir)
}
