package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvConfig overrides the config file location.
const EnvConfig = "SIMPLE_EXTRACT_CONFIG"

type Config struct {
	OutputDir     string            `toml:"output_dir"`
	DownloadDir   string            `toml:"download_dir"`
	NoClobber     bool              `toml:"no_clobber"`
	ForceDownload bool              `toml:"force_download"`
	QuietFetch    bool              `toml:"quiet_fetch"`
	FetchTimeout  time.Duration     `toml:"fetch_timeout"`
	Tools         map[string]string `toml:"tools"`
}

func DefaultConfig() *Config {
	return &Config{
		OutputDir:    ".",
		DownloadDir:  ".",
		FetchTimeout: 1 * time.Hour,
		Tools:        map[string]string{},
	}
}

// Path returns the config file location. It is not required to exist.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "simple-extract", "config.toml"), nil
}

// Load reads the config file on top of the defaults. A missing file is not an
// error; nothing is ever written back.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.FetchTimeout < 0 {
		return nil, fmt.Errorf("config %s: fetch_timeout must not be negative", path)
	}
	if cfg.Tools == nil {
		cfg.Tools = map[string]string{}
	}

	return cfg, nil
}
