package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/digitalocean/go-libvirt"
	"github.com/rs/zerolog"
)

// LibvirtClient is the interface for libvirt operations.
// This allows for dependency injection and testing.
type LibvirtClient interface {
	StoragePoolLookupByName(Name string) (libvirt.StoragePool, error)
	StoragePoolDefineXML(XML string, Flags uint32) (libvirt.StoragePool, error)
	StoragePoolCreate(Pool libvirt.StoragePool, Flags libvirt.StoragePoolCreateFlags) error
	StoragePoolBuild(Pool libvirt.StoragePool, Flags libvirt.StoragePoolBuildFlags) error
	StoragePoolSetAutostart(Pool libvirt.StoragePool, Autostart int32) error
	StoragePoolUndefine(Pool libvirt.StoragePool) error
	StoragePoolGetInfo(Pool libvirt.StoragePool) (rState uint8, rCapacity uint64, rAllocation uint64, rAvailable uint64, err error)
	StoragePoolGetXMLDesc(Pool libvirt.StoragePool, Flags libvirt.StorageXMLFlags) (string, error)
	StoragePoolRefresh(Pool libvirt.StoragePool, Flags uint32) error
	StorageVolLookupByName(Pool libvirt.StoragePool, Name string) (libvirt.StorageVol, error)
	StorageVolCreateXML(Pool libvirt.StoragePool, XML string, Flags libvirt.StorageVolCreateFlags) (libvirt.StorageVol, error)
	StorageVolDelete(Vol libvirt.StorageVol, Flags libvirt.StorageVolDeleteFlags) error
	StorageVolGetPath(Vol libvirt.StorageVol) (string, error)
	StorageVolUpload(Vol libvirt.StorageVol, outStream io.Reader, Offset uint64, Length uint64, Flags libvirt.StorageVolUploadFlags) error
}

// Manager coordinates the scratch pool and the volumes uploaded into it.
type Manager struct {
	client LibvirtClient
	logger zerolog.Logger
}

// NewManager creates a new storage manager.
func NewManager(client LibvirtClient, logger zerolog.Logger) *Manager {
	return &Manager{
		client: client,
		logger: logger,
	}
}

// EnsureScratchPool makes sure the boot-scratch pool exists and is running,
// then refreshes it so previously uploaded volumes are visible.
func (m *Manager) EnsureScratchPool(ctx context.Context) error {
	if err := m.EnsurePool(ctx, ScratchPool, PoolTypeDir, SystemScratchDir); err != nil {
		return fmt.Errorf("failed to ensure scratch pool: %w", err)
	}

	if err := m.RefreshPool(ctx, ScratchPool); err != nil {
		return fmt.Errorf("failed to refresh scratch pool: %w", err)
	}

	return nil
}
