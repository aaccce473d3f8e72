// Package naming provides naming conventions for the temporary files,
// scratch volumes and guest disk targets created during an install.
//
// These rules are version-independent and shared across all API versions.
package naming

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prefix marks every temporary file and volume created by virtinst.
const Prefix = "virtinst-"

// ScratchFilePrefix returns the os.CreateTemp pattern for a file fetched
// from an install tree.
//
// Example: "vmlinuz" → "virtinst-vmlinuz."
func ScratchFilePrefix(base string) string {
	return Prefix + base + "."
}

// ScratchVolumeName returns a unique volume name for uploaded install media.
// Format: virtinst-{kind}-{8 hex chars}
//
// Example: "kernel" → "virtinst-kernel-1a2b3c4d"
func ScratchVolumeName(kind string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s%s-%s", Prefix, kind, id[:8])
}

// DiskTarget returns the guest device name for the index'th disk on a bus
// with the given prefix, following the kernel's sd/vd naming.
//
// Example: ("sd", 0) → "sda", ("vd", 27) → "vdab"
func DiskTarget(prefix string, index int) string {
	if index < 0 {
		index = 0
	}
	suffix := ""
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		suffix = string(rune('a'+(n-1)%26)) + suffix
	}
	return prefix + suffix
}

// IsTemporary reports whether name was produced by this package.
func IsTemporary(name string) bool {
	return strings.HasPrefix(name, Prefix)
}
