package storage

import (
	"context"
	"fmt"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"
	libvirtxml "libvirt.org/go/libvirtxml"
)

var poolStates = map[libvirt.StoragePoolState]string{
	libvirt.StoragePoolInactive:     "inactive",
	libvirt.StoragePoolBuilding:     "building",
	libvirt.StoragePoolRunning:      "running",
	libvirt.StoragePoolDegraded:     "degraded",
	libvirt.StoragePoolInaccessible: "inaccessible",
}

func poolStateName(state uint8) string {
	if s, ok := poolStates[libvirt.StoragePoolState(state)]; ok {
		return s
	}
	return "unknown"
}

// EnsurePool makes sure the named pool exists and is running. A missing
// pool is created, an inactive one is started.
func (m *Manager) EnsurePool(ctx context.Context, name string, poolType PoolType, path string) error {
	pool, err := m.client.StoragePoolLookupByName(name)
	if err != nil {
		m.logger.Debug().Str("pool", name).Str("path", path).Msg("creating storage pool")
		return m.CreatePool(ctx, name, poolType, path)
	}

	state, _, _, _, err := m.client.StoragePoolGetInfo(pool)
	if err != nil {
		return fmt.Errorf("failed to get state of pool %s: %w", name, err)
	}
	if libvirt.StoragePoolState(state) == libvirt.StoragePoolRunning {
		return nil
	}

	m.logger.Debug().Str("pool", name).Str("state", poolStateName(state)).Msg("starting storage pool")
	if err := m.client.StoragePoolCreate(pool, 0); err != nil {
		return fmt.Errorf("failed to start pool %s: %w", name, err)
	}
	return nil
}

// CreatePool defines a new pool, builds its target, starts it and marks it
// autostart. A pool that fails to build or start is undefined again.
func (m *Manager) CreatePool(ctx context.Context, name string, poolType PoolType, path string) error {
	if poolType != PoolTypeDir {
		return fmt.Errorf("unsupported pool type: %s", poolType)
	}

	poolXML, err := generateDirPoolXML(name, path)
	if err != nil {
		return fmt.Errorf("failed to generate pool XML: %w", err)
	}

	pool, err := m.client.StoragePoolDefineXML(poolXML, 0)
	if err != nil {
		return fmt.Errorf("failed to define pool %s: %w", name, err)
	}

	undefine := func(step string, err error) error {
		if uerr := m.client.StoragePoolUndefine(pool); uerr != nil {
			m.logger.Warn().Err(uerr).Str("pool", name).Msg("failed to undefine pool")
		}
		return fmt.Errorf("failed to %s pool %s: %w", step, name, err)
	}

	if err := m.client.StoragePoolBuild(pool, 0); err != nil {
		return undefine("build", err)
	}
	if err := m.client.StoragePoolCreate(pool, 0); err != nil {
		return undefine("start", err)
	}

	if err := m.client.StoragePoolSetAutostart(pool, 1); err != nil {
		return fmt.Errorf("pool %s started but failed to set autostart: %w", name, err)
	}
	return nil
}

// GetPoolInfo returns the state, target path and usage of a pool.
func (m *Manager) GetPoolInfo(ctx context.Context, name string) (*PoolInfo, error) {
	pool, err := m.client.StoragePoolLookupByName(name)
	if err != nil {
		return nil, fmt.Errorf("pool not found: %w", err)
	}

	state, capacity, allocation, available, err := m.client.StoragePoolGetInfo(pool)
	if err != nil {
		return nil, fmt.Errorf("failed to get info of pool %s: %w", name, err)
	}

	desc, err := m.client.StoragePoolGetXMLDesc(pool, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get XML of pool %s: %w", name, err)
	}

	var def libvirtxml.StoragePool
	if err := def.Unmarshal(desc); err != nil {
		return nil, fmt.Errorf("failed to parse XML of pool %s: %w", name, err)
	}

	info := &PoolInfo{
		Name:       pool.Name,
		Type:       PoolType(def.Type),
		UUID:       uuid.UUID(pool.UUID).String(),
		State:      poolStateName(state),
		Capacity:   capacity,
		Allocation: allocation,
		Available:  available,
	}
	if def.Target != nil {
		info.Path = def.Target.Path
	}
	return info, nil
}

// RefreshPool rescans a pool so volumes added or removed behind libvirt's
// back are picked up.
func (m *Manager) RefreshPool(ctx context.Context, name string) error {
	pool, err := m.client.StoragePoolLookupByName(name)
	if err != nil {
		return fmt.Errorf("pool not found: %w", err)
	}

	if err := m.client.StoragePoolRefresh(pool, 0); err != nil {
		return fmt.Errorf("failed to refresh pool %s: %w", name, err)
	}
	return nil
}

// generateDirPoolXML returns the definition of a dir pool at path, owned by
// the qemu user so uploaded media is readable by guests.
func generateDirPoolXML(name, path string) (string, error) {
	uid, gid, _ := GetQEMUUserGroup()

	pool := &libvirtxml.StoragePool{
		Type: "dir",
		Name: name,
		Target: &libvirtxml.StoragePoolTarget{
			Path: path,
			Permissions: &libvirtxml.StoragePoolTargetPermissions{
				Owner: uid,
				Group: gid,
				Mode:  "0711",
			},
		},
	}

	return pool.Marshal()
}
