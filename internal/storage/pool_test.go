package storage

import (
	"context"
	"testing"

	"github.com/digitalocean/go-libvirt"
	"github.com/rs/zerolog"
)

func TestManager_EnsurePool(t *testing.T) {
	tests := []struct {
		name     string
		poolName string
		path     string
		setup    func(*mockLibvirtClient)
		wantErr  bool
	}{
		{
			name:     "create new pool",
			poolName: "test-pool",
			path:     "/var/lib/libvirt/boot",
			setup:    func(m *mockLibvirtClient) {},
			wantErr:  false,
		},
		{
			name:     "pool already exists",
			poolName: "existing-pool",
			path:     "/var/lib/libvirt/boot",
			setup: func(m *mockLibvirtClient) {
				mgr := NewManager(m, zerolog.Nop())
				_ = mgr.CreatePool(context.Background(), "existing-pool", PoolTypeDir, "/var/lib/libvirt/boot")
			},
			wantErr: false,
		},
		{
			name:     "inactive pool is started",
			poolName: "stopped-pool",
			path:     "/var/lib/libvirt/boot",
			setup: func(m *mockLibvirtClient) {
				mgr := NewManager(m, zerolog.Nop())
				_ = mgr.CreatePool(context.Background(), "stopped-pool", PoolTypeDir, "/var/lib/libvirt/boot")
				m.pools["stopped-pool"].state = libvirt.StoragePoolInactive
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := newMockLibvirtClient()
			tt.setup(mockClient)

			mgr := NewManager(mockClient, zerolog.Nop())
			err := mgr.EnsurePool(context.Background(), tt.poolName, PoolTypeDir, tt.path)

			if (err != nil) != tt.wantErr {
				t.Errorf("EnsurePool() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			p, ok := mockClient.pools[tt.poolName]
			if !ok {
				t.Fatalf("Pool %s not found after EnsurePool()", tt.poolName)
			}
			if p.state != libvirt.StoragePoolRunning {
				t.Errorf("Pool %s state = %v, want running", tt.poolName, p.state)
			}
		})
	}
}

func TestManager_CreatePool(t *testing.T) {
	tests := []struct {
		name     string
		poolType PoolType
		wantErr  bool
	}{
		{
			name:     "create dir pool",
			poolType: PoolTypeDir,
			wantErr:  false,
		},
		{
			name:     "unsupported pool type",
			poolType: "lvm",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := newMockLibvirtClient()
			mgr := NewManager(mockClient, zerolog.Nop())

			err := mgr.CreatePool(context.Background(), "test-pool", tt.poolType, "/var/lib/libvirt/boot")
			if (err != nil) != tt.wantErr {
				t.Errorf("CreatePool() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_CreatePool_AlreadyDefined(t *testing.T) {
	mockClient := newMockLibvirtClient()
	mgr := NewManager(mockClient, zerolog.Nop())

	if err := mgr.CreatePool(context.Background(), "dup", PoolTypeDir, "/tmp/a"); err != nil {
		t.Fatalf("CreatePool() error = %v", err)
	}
	if err := mgr.CreatePool(context.Background(), "dup", PoolTypeDir, "/tmp/a"); err == nil {
		t.Error("CreatePool() on existing pool expected error, got nil")
	}
}

func TestManager_GetPoolInfo(t *testing.T) {
	tests := []struct {
		name     string
		poolName string
		setup    func(*Manager)
		wantErr  bool
	}{
		{
			name:     "get info for existing pool",
			poolName: ScratchPool,
			setup: func(mgr *Manager) {
				_ = mgr.CreatePool(context.Background(), ScratchPool, PoolTypeDir, SystemScratchDir)
			},
			wantErr: false,
		},
		{
			name:     "pool not found",
			poolName: "nonexistent",
			setup:    func(mgr *Manager) {},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := NewManager(newMockLibvirtClient(), zerolog.Nop())
			tt.setup(mgr)

			info, err := mgr.GetPoolInfo(context.Background(), tt.poolName)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetPoolInfo() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if info.Name != tt.poolName {
				t.Errorf("GetPoolInfo() name = %v, want %v", info.Name, tt.poolName)
			}
			if info.State != "running" {
				t.Errorf("GetPoolInfo() state = %v, want running", info.State)
			}
			if info.Type != PoolTypeDir {
				t.Errorf("GetPoolInfo() type = %v, want %v", info.Type, PoolTypeDir)
			}
			if info.Path != SystemScratchDir {
				t.Errorf("GetPoolInfo() path = %v, want %v", info.Path, SystemScratchDir)
			}
		})
	}
}

func TestManager_EnsureScratchPool(t *testing.T) {
	mockClient := newMockLibvirtClient()
	mgr := NewManager(mockClient, zerolog.Nop())

	if err := mgr.EnsureScratchPool(context.Background()); err != nil {
		t.Fatalf("EnsureScratchPool() error = %v", err)
	}

	p, ok := mockClient.pools[ScratchPool]
	if !ok {
		t.Fatal("scratch pool not created")
	}
	if p.path != SystemScratchDir {
		t.Errorf("scratch pool path = %q, want %q", p.path, SystemScratchDir)
	}
	if mockClient.refreshed != 1 {
		t.Errorf("pool refreshed %d times, want 1", mockClient.refreshed)
	}

	// Second call reuses the pool.
	if err := mgr.EnsureScratchPool(context.Background()); err != nil {
		t.Fatalf("EnsureScratchPool() second call error = %v", err)
	}
	if len(mockClient.pools) != 1 {
		t.Errorf("pool count = %d, want 1", len(mockClient.pools))
	}
}

func TestGenerateDirPoolXML(t *testing.T) {
	xml, err := generateDirPoolXML(ScratchPool, SystemScratchDir)
	if err != nil {
		t.Fatalf("generateDirPoolXML() error = %v", err)
	}

	for _, want := range []string{
		`<pool type="dir">`,
		"<name>boot-scratch</name>",
		"<path>/var/lib/libvirt/boot</path>",
	} {
		if !contains(xml, want) {
			t.Errorf("pool XML missing %q:\n%s", want, xml)
		}
	}
	if contains(xml, "<?xml") {
		t.Error("pool XML should not carry an XML declaration")
	}
}
