package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeBootFiles(t *testing.T) (dir, kernel, initrd string) {
	t.Helper()

	dir = t.TempDir()
	kernel = filepath.Join(dir, "virtinst-vmlinuz.123")
	initrd = filepath.Join(dir, "virtinst-initrd.img.456")
	if err := os.WriteFile(kernel, []byte("kernel-bytes"), 0644); err != nil {
		t.Fatalf("failed to write kernel: %v", err)
	}
	if err := os.WriteFile(initrd, []byte("initrd-bytes"), 0644); err != nil {
		t.Fatalf("failed to write initrd: %v", err)
	}
	return dir, kernel, initrd
}

func TestNeedsUpload(t *testing.T) {
	tests := []struct {
		name string
		req  UploadRequest
		want bool
	}{
		{"local system scratch dir", UploadRequest{ScratchDir: SystemScratchDir}, false},
		{"local system scratch dir trailing slash", UploadRequest{ScratchDir: SystemScratchDir + "/"}, false},
		{"local user scratch dir", UploadRequest{ScratchDir: "/home/user/.cache/virtinst/boot"}, true},
		{"remote system scratch dir", UploadRequest{ScratchDir: SystemScratchDir, Remote: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsUpload(tt.req); got != tt.want {
				t.Errorf("needsUpload() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_UploadKernelInitrd_InPlace(t *testing.T) {
	mockClient := newMockLibvirtClient()
	mgr := NewManager(mockClient, zerolog.Nop())

	res, err := mgr.UploadKernelInitrd(context.Background(), UploadRequest{
		Kernel:     SystemScratchDir + "/virtinst-vmlinuz.1",
		Initrd:     SystemScratchDir + "/virtinst-initrd.img.2",
		ScratchDir: SystemScratchDir,
	})
	if err != nil {
		t.Fatalf("UploadKernelInitrd() error = %v", err)
	}

	if res.Kernel != SystemScratchDir+"/virtinst-vmlinuz.1" || res.Initrd != SystemScratchDir+"/virtinst-initrd.img.2" {
		t.Errorf("paths changed: %+v", res)
	}
	if len(res.Volumes) != 0 {
		t.Errorf("Volumes = %v, want none", res.Volumes)
	}
	if len(mockClient.pools) != 0 {
		t.Error("no pool should be created for in-place files")
	}
}

func TestManager_UploadKernelInitrd_Remote(t *testing.T) {
	mockClient := newMockLibvirtClient()
	mgr := NewManager(mockClient, zerolog.Nop())
	dir, kernel, initrd := writeBootFiles(t)

	res, err := mgr.UploadKernelInitrd(context.Background(), UploadRequest{
		Kernel:     kernel,
		Initrd:     initrd,
		ScratchDir: dir,
		Remote:     true,
	})
	if err != nil {
		t.Fatalf("UploadKernelInitrd() error = %v", err)
	}

	if len(res.Volumes) != 2 {
		t.Fatalf("Volumes = %v, want 2", res.Volumes)
	}
	if !strings.HasPrefix(res.Kernel, SystemScratchDir+"/virtinst-kernel-") {
		t.Errorf("Kernel = %q, want a volume path under %s", res.Kernel, SystemScratchDir)
	}
	if !strings.HasPrefix(res.Initrd, SystemScratchDir+"/virtinst-initrd-") {
		t.Errorf("Initrd = %q, want a volume path under %s", res.Initrd, SystemScratchDir)
	}

	kvol := mockClient.volumes[ScratchPool][res.Volumes[0].Name]
	if kvol == nil || string(kvol.data) != "kernel-bytes" {
		t.Errorf("kernel volume content not uploaded")
	}
	ivol := mockClient.volumes[ScratchPool][res.Volumes[1].Name]
	if ivol == nil || string(ivol.data) != "initrd-bytes" {
		t.Errorf("initrd volume content not uploaded")
	}

	if failed := mgr.DeleteVolumes(context.Background(), res.Volumes); failed != 0 {
		t.Errorf("DeleteVolumes() failed = %d", failed)
	}
	if names := mockClient.volumeNames(ScratchPool); len(names) != 0 {
		t.Errorf("volumes left: %v", names)
	}
}

func TestManager_UploadKernelInitrd_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*mockLibvirtClient)
		wantErr string
	}{
		{
			name:    "upload fails",
			mutate:  func(m *mockLibvirtClient) { m.uploadErr = errors.New("connection reset") },
			wantErr: "connection reset",
		},
		{
			name:    "volume create fails",
			mutate:  func(m *mockLibvirtClient) { m.createErr = errors.New("no space") },
			wantErr: "no space",
		},
		{
			name: "pool too small",
			mutate: func(m *mockLibvirtClient) {
				mgr := NewManager(m, zerolog.Nop())
				_ = mgr.CreatePool(context.Background(), ScratchPool, PoolTypeDir, SystemScratchDir)
				m.pools[ScratchPool].available = 4
			},
			wantErr: "not enough space",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := newMockLibvirtClient()
			tt.mutate(mockClient)
			mgr := NewManager(mockClient, zerolog.Nop())
			dir, kernel, initrd := writeBootFiles(t)

			_, err := mgr.UploadKernelInitrd(context.Background(), UploadRequest{
				Kernel:     kernel,
				Initrd:     initrd,
				ScratchDir: dir,
				Remote:     true,
			})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("UploadKernelInitrd() error = %v, want containing %q", err, tt.wantErr)
			}
			if names := mockClient.volumeNames(ScratchPool); len(names) != 0 {
				t.Errorf("volumes left after failure: %v", names)
			}
		})
	}
}

func TestManager_UploadKernelInitrd_MissingFile(t *testing.T) {
	mgr := NewManager(newMockLibvirtClient(), zerolog.Nop())

	_, err := mgr.UploadKernelInitrd(context.Background(), UploadRequest{
		Kernel:     filepath.Join(t.TempDir(), "missing"),
		Initrd:     filepath.Join(t.TempDir(), "missing"),
		ScratchDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("UploadKernelInitrd() expected error, got nil")
	}
}
