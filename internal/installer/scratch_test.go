package installer

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"

	"github.com/jbweber/virtinst/internal/storage"
)

func withEUID(t *testing.T, uid int) {
	t.Helper()
	orig := geteuid
	geteuid = func() int { return uid }
	t.Cleanup(func() { geteuid = orig })
}

func TestResolveScratchDir(t *testing.T) {
	home := t.TempDir()
	cache := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", cache)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	userDir := filepath.Join(cache, "virtinst", "boot")

	tests := []struct {
		name     string
		override string
		remote   bool
		euid     int
		want     string
	}{
		{"override", "/scratch", false, 1000, "/scratch"},
		{"override with tilde", "~/boot", true, 0, filepath.Join(home, "boot")},
		{"root local", "", false, 0, storage.SystemScratchDir},
		{"root remote", "", true, 0, userDir},
		{"user local", "", false, 1000, userDir},
		{"user remote", "", true, 1000, userDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEUID(t, tt.euid)

			got, err := ResolveScratchDir(tt.override, tt.remote)
			if err != nil {
				t.Fatalf("ResolveScratchDir() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveScratchDir(%q, %v) = %q, want %q", tt.override, tt.remote, got, tt.want)
			}
		})
	}
}
