package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/jbweber/virtinst/internal/storage"
)

var geteuid = os.Geteuid

// ResolveScratchDir picks the directory fetched boot files are written to.
//
// An override wins and may start with "~". Root on a local connection uses
// the system scratch dir, which the hypervisor can read directly. Everyone
// else gets a per-user directory under the cache dir.
func ResolveScratchDir(override string, remote bool) (string, error) {
	if override != "" {
		dir, err := homedir.Expand(override)
		if err != nil {
			return "", fmt.Errorf("failed to expand scratch dir %s: %w", override, err)
		}
		return dir, nil
	}

	if !remote && geteuid() == 0 {
		return storage.SystemScratchDir, nil
	}

	cache, err := os.UserCacheDir()
	if err != nil {
		home, herr := homedir.Dir()
		if herr != nil {
			return "", fmt.Errorf("failed to find a cache dir: %w", err)
		}
		cache = filepath.Join(home, ".cache")
	}
	return filepath.Join(cache, "virtinst", "boot"), nil
}
