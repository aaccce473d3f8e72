package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	libvirtxml "libvirt.org/go/libvirtxml"

	"github.com/jbweber/virtinst/internal/fetch"
)

// CreateVolume creates a new volume in the specified pool and returns its
// reference.
func (m *Manager) CreateVolume(ctx context.Context, poolName string, spec VolumeSpec) (VolumeRef, error) {
	if err := spec.Validate(); err != nil {
		return VolumeRef{}, fmt.Errorf("invalid volume spec: %w", err)
	}

	pool, err := m.client.StoragePoolLookupByName(poolName)
	if err != nil {
		return VolumeRef{}, fmt.Errorf("pool not found: %w", err)
	}

	volumeXML, err := generateVolumeXML(spec, m.volumePermissions(spec))
	if err != nil {
		return VolumeRef{}, fmt.Errorf("failed to generate volume XML: %w", err)
	}

	vol, err := m.client.StorageVolCreateXML(pool, volumeXML, 0)
	if err != nil {
		return VolumeRef{}, fmt.Errorf("failed to create volume: %w", err)
	}

	path, err := m.client.StorageVolGetPath(vol)
	if err != nil {
		_ = m.client.StorageVolDelete(vol, 0)
		return VolumeRef{}, fmt.Errorf("failed to get volume path: %w", err)
	}

	return VolumeRef{Pool: poolName, Name: spec.Name, Path: path}, nil
}

// DeleteVolume deletes a volume from the specified pool.
func (m *Manager) DeleteVolume(ctx context.Context, poolName, volumeName string) error {
	pool, err := m.client.StoragePoolLookupByName(poolName)
	if err != nil {
		return fmt.Errorf("pool not found: %w", err)
	}

	vol, err := m.client.StorageVolLookupByName(pool, volumeName)
	if err != nil {
		return fmt.Errorf("volume not found: %w", err)
	}

	if err := m.client.StorageVolDelete(vol, 0); err != nil {
		return fmt.Errorf("failed to delete volume: %w", err)
	}

	return nil
}

// DeleteVolumes removes every referenced volume, continuing past failures.
// It returns the number of volumes that could not be removed.
func (m *Manager) DeleteVolumes(ctx context.Context, refs []VolumeRef) int {
	failed := 0
	for _, ref := range refs {
		if err := m.DeleteVolume(ctx, ref.Pool, ref.Name); err != nil {
			m.logger.Warn().Err(err).Str("pool", ref.Pool).Str("volume", ref.Name).Msg("failed to remove temporary volume")
			failed++
			continue
		}
		m.logger.Debug().Str("pool", ref.Pool).Str("volume", ref.Name).Msg("removed temporary volume")
	}
	return failed
}

// UploadFile streams a local file into an existing volume.
func (m *Manager) UploadFile(ctx context.Context, ref VolumeRef, path string, meter fetch.Meter) error {
	meter = fetch.EnsureMeter(meter)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	size := uint64(info.Size())

	pool, err := m.client.StoragePoolLookupByName(ref.Pool)
	if err != nil {
		return fmt.Errorf("pool not found: %w", err)
	}
	vol, err := m.client.StorageVolLookupByName(pool, ref.Name)
	if err != nil {
		return fmt.Errorf("volume not found: %w", err)
	}

	meter.Start(fmt.Sprintf("Transferring '%s'", ref.Name), info.Size())
	r := &progressReader{r: f, meter: meter}
	err = m.client.StorageVolUpload(vol, r, 0, size, 0)
	meter.End(r.done)
	if err != nil {
		return fmt.Errorf("failed to upload %s to volume %s: %w", path, ref.Name, err)
	}

	return nil
}

// progressReader reports bytes read to a meter.
type progressReader struct {
	r     io.Reader
	meter fetch.Meter
	done  int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		p.meter.Update(p.done)
	}
	return n, err
}

// volumePermissions returns the target permissions of a new volume, owned
// by the qemu user when the hypervisor runs on this host.
func (m *Manager) volumePermissions(spec VolumeSpec) *libvirtxml.StorageVolumeTargetPermissions {
	perms := &libvirtxml.StorageVolumeTargetPermissions{Mode: "0644"}
	if spec.Remote {
		m.logger.Debug().Str("volume", spec.Name).Msg("remote connection, leaving volume ownership to libvirt")
		return perms
	}

	uid, gid, err := GetQEMUUserGroup()
	if err != nil {
		m.logger.Warn().Err(err).Str("volume", spec.Name).Msg("using fallback volume ownership")
	}
	perms.Owner = uid
	perms.Group = gid
	return perms
}

// generateVolumeXML generates XML for a raw scratch volume.
func generateVolumeXML(spec VolumeSpec, perms *libvirtxml.StorageVolumeTargetPermissions) (string, error) {
	format := spec.Format
	if format == "" {
		format = VolumeFormatRaw
	}

	vol := &libvirtxml.StorageVolume{
		Type: "file",
		Name: spec.Name,
		Capacity: &libvirtxml.StorageVolumeSize{
			Value: spec.Capacity,
			Unit:  "B",
		},
		Target: &libvirtxml.StorageVolumeTarget{
			Format: &libvirtxml.StorageVolumeTargetFormat{
				Type: string(format),
			},
			Permissions: perms,
		},
	}

	xmlBytes, err := vol.Marshal()
	if err != nil {
		return "", err
	}

	xml := strings.TrimPrefix(string(xmlBytes), "<?xml version=\"1.0\" encoding=\"UTF-8\"?>")
	return strings.TrimSpace(xml), nil
}
