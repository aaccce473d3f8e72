package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/naming"
)

// UploadRequest describes a fetched kernel and initrd that the guest has to
// boot from.
type UploadRequest struct {
	Kernel     string      // Local path of the kernel
	Initrd     string      // Local path of the initrd
	ScratchDir string      // Directory both files were fetched into
	Remote     bool        // Connection targets another host
	Meter      fetch.Meter // Upload progress, may be nil
}

// UploadResult holds the paths the hypervisor should boot from.
type UploadResult struct {
	Kernel  string
	Initrd  string
	Volumes []VolumeRef // Temporary volumes to delete after install
}

// needsUpload reports whether the hypervisor cannot read the files in place.
func needsUpload(req UploadRequest) bool {
	if req.Remote {
		return true
	}
	return filepath.Clean(req.ScratchDir) != SystemScratchDir
}

// UploadKernelInitrd makes the kernel and initrd available to the
// hypervisor. Files fetched on the hypervisor host into the system scratch
// dir are used in place; otherwise both are uploaded as raw volumes into
// the boot-scratch pool. On failure any volume already created is removed.
func (m *Manager) UploadKernelInitrd(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if !needsUpload(req) {
		m.logger.Debug().Str("scratchdir", req.ScratchDir).Msg("kernel and initrd already in system scratch dir, not uploading")
		return &UploadResult{Kernel: req.Kernel, Initrd: req.Initrd}, nil
	}

	if err := m.EnsureScratchPool(ctx); err != nil {
		return nil, err
	}

	var need uint64
	for _, p := range []string{req.Kernel, req.Initrd} {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		need += uint64(info.Size())
	}

	pool, err := m.GetPoolInfo(ctx, ScratchPool)
	if err != nil {
		return nil, err
	}
	m.logger.Debug().Str("pool", pool.String()).Str("need", humanize.IBytes(need)).Msg("uploading kernel and initrd")
	if pool.Available > 0 && pool.Available < need {
		return nil, fmt.Errorf("not enough space in pool %s: need %s, %s available",
			pool.Name, humanize.IBytes(need), humanize.IBytes(pool.Available))
	}

	res := &UploadResult{}

	kernel, err := m.uploadOne(ctx, req.Kernel, VolumeTypeKernel, req)
	if err != nil {
		return nil, err
	}
	res.Volumes = append(res.Volumes, kernel)

	initrd, err := m.uploadOne(ctx, req.Initrd, VolumeTypeInitrd, req)
	if err != nil {
		m.DeleteVolumes(ctx, res.Volumes)
		return nil, err
	}
	res.Volumes = append(res.Volumes, initrd)

	res.Kernel = kernel.Path
	res.Initrd = initrd.Path
	return res, nil
}

func (m *Manager) uploadOne(ctx context.Context, path string, volType VolumeType, req UploadRequest) (VolumeRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return VolumeRef{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	size := uint64(info.Size())
	if size == 0 {
		return VolumeRef{}, fmt.Errorf("%s is empty", path)
	}

	ref, err := m.CreateVolume(ctx, ScratchPool, VolumeSpec{
		Name:     naming.ScratchVolumeName(string(volType)),
		Type:     volType,
		Format:   VolumeFormatRaw,
		Capacity: size,
		Remote:   req.Remote,
	})
	if err != nil {
		return VolumeRef{}, fmt.Errorf("failed to create %s volume: %w", volType, err)
	}

	if err := m.UploadFile(ctx, ref, path, req.Meter); err != nil {
		m.DeleteVolumes(ctx, []VolumeRef{ref})
		return VolumeRef{}, err
	}

	m.logger.Debug().Str("file", path).Str("volume", ref.Path).Msg("uploaded to scratch volume")
	return ref, nil
}
