package storage

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// PoolType represents the type of storage pool backend.
type PoolType string

const (
	PoolTypeDir PoolType = "dir" // Directory-based storage
)

// VolumeType represents the purpose of a scratch volume.
type VolumeType string

const (
	VolumeTypeKernel  VolumeType = "kernel"   // Install kernel
	VolumeTypeInitrd  VolumeType = "initrd"   // Install initrd
	VolumeTypeBootISO VolumeType = "boot-iso" // Bootable install ISO
)

// VolumeFormat represents the on-disk format.
type VolumeFormat string

const (
	VolumeFormatRaw VolumeFormat = "raw"
)

// VolumeSpec specifies how to create a scratch volume.
type VolumeSpec struct {
	Name     string       // Volume name (e.g., "virtinst-vmlinuz-1a2b3c4d")
	Type     VolumeType   // Volume type
	Format   VolumeFormat // Disk format, raw unless set
	Capacity uint64       // Capacity in bytes

	// Remote leaves ownership to the daemon. The local qemu user says
	// nothing about the hypervisor host.
	Remote bool
}

// Validate checks if the volume spec is valid.
func (v *VolumeSpec) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("volume name is required")
	}
	switch v.Type {
	case VolumeTypeKernel, VolumeTypeInitrd, VolumeTypeBootISO:
	case "":
		return fmt.Errorf("volume type is required")
	default:
		return fmt.Errorf("invalid volume type: %s", v.Type)
	}
	if v.Format != "" && v.Format != VolumeFormatRaw {
		return fmt.Errorf("invalid volume format: %s (must be raw)", v.Format)
	}
	if v.Capacity == 0 {
		return fmt.Errorf("volume capacity must be greater than 0")
	}
	return nil
}

// PoolInfo contains information about a storage pool.
type PoolInfo struct {
	Name       string   // Pool name
	Type       PoolType // Pool type
	Path       string   // Pool path (for dir-based pools)
	UUID       string   // Pool UUID
	State      string   // Pool state (running, inactive, etc.)
	Capacity   uint64   // Total capacity in bytes
	Allocation uint64   // Allocated space in bytes
	Available  uint64   // Available space in bytes
}

// String summarises the pool for log output, e.g. "boot-scratch (12 GiB free)".
func (p *PoolInfo) String() string {
	return fmt.Sprintf("%s (%s free)", p.Name, humanize.IBytes(p.Available))
}

// VolumeRef identifies a volume created by this package.
type VolumeRef struct {
	Pool string
	Name string
	Path string
}

// Scratch pool configuration.
const (
	// ScratchPool is the pool install media is uploaded into.
	ScratchPool = "boot-scratch"
	// SystemScratchDir is where the hypervisor host keeps install media.
	SystemScratchDir = "/var/lib/libvirt/boot"
)
