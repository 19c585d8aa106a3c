package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/matzehuels/mapknowledge/pkg/config"
)

func TestCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	dir, err = cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestFileCacheDirFromConfig(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.cfg = config.Default()
	c.cfg.Cache.Dir = "/var/cache/mapknowledge"

	dir, err := c.fileCacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/var/cache/mapknowledge" {
		t.Errorf("fileCacheDir() = %q", dir)
	}
}

func TestNewCacheBackends(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(io.Discard, LogInfo)

	tests := []struct {
		backend string
		noCache bool
		want    string
	}{
		{"file", false, "*cache.FileCache"},
		{"none", false, "*cache.NullCache"},
		{"file", true, "*cache.NullCache"},
	}
	for _, tt := range tests {
		c.cfg = config.Default()
		c.cfg.Cache.Backend = tt.backend
		ch, err := c.newCache(t.Context(), tt.noCache)
		if err != nil {
			t.Fatalf("newCache(%s) error: %v", tt.backend, err)
		}
		if got := fmt.Sprintf("%T", ch); got != tt.want {
			t.Errorf("newCache(%s, noCache=%v) = %s, want %s", tt.backend, tt.noCache, got, tt.want)
		}
		ch.Close()
	}
}
