// Package cache keeps downloaded archives under deterministic names in a
// download directory.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type DiskCache struct {
	sync.RWMutex
	dir string
}

func New(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) GetPath(name string) string {
	return filepath.Join(c.dir, name)
}

func (c *DiskCache) Has(name string) bool {
	c.RLock()
	defer c.RUnlock()
	info, err := os.Stat(c.GetPath(name))
	return err == nil && info.Mode().IsRegular()
}

// Store moves a fully downloaded file into its final place, replacing any
// previous copy in one rename.
func (c *DiskCache) Store(name, src string) (string, error) {
	c.Lock()
	defer c.Unlock()

	destPath := c.GetPath(name)
	if err := os.Rename(src, destPath); err != nil {
		os.Remove(src)
		return "", fmt.Errorf("store %s: %w", name, err)
	}

	return destPath, nil
}
