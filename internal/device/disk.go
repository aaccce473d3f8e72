// Package device describes guest disks backed by host paths.
package device

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"libvirt.org/go/libvirtxml"
)

// Disk device types.
const (
	DeviceCDROM = "cdrom"
	DeviceDisk  = "disk"
)

// Disk is a guest disk backed by a host file or block device.
type Disk struct {
	Device string
	Path   string

	// Stat is used to inspect Path. Defaults to os.Stat.
	Stat func(string) (fs.FileInfo, error)

	block bool
}

// NewCDROM returns a cdrom disk for the media at path.
func NewCDROM(path string) *Disk {
	return &Disk{Device: DeviceCDROM, Path: path}
}

// Validate canonicalises Path and checks that it names usable media.
func (d *Disk) Validate() error {
	if d.Path == "" {
		return errors.New("disk path is empty")
	}
	if d.Device != DeviceCDROM && d.Device != DeviceDisk {
		return fmt.Errorf("unknown disk device type %q", d.Device)
	}

	abs, err := filepath.Abs(d.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", d.Path, err)
	}

	stat := d.Stat
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("path '%s' does not exist", abs)
		}
		return fmt.Errorf("failed to stat %s: %w", abs, err)
	}

	mode := info.Mode()
	switch {
	case mode.IsDir():
		return fmt.Errorf("'%s' is a directory, not %s media", abs, d.Device)
	case mode&fs.ModeDevice != 0 && mode&fs.ModeCharDevice == 0:
		d.block = true
	case mode.IsRegular():
		d.block = false
	default:
		return fmt.Errorf("'%s' is not a regular file or block device", abs)
	}

	d.Path = abs
	return nil
}

// IsBlock reports whether Validate found a block device.
func (d *Disk) IsBlock() bool {
	return d.block
}

// DomainDisk returns the libvirt disk definition attached at target
// (e.g. "sda"). Call Validate first.
func (d *Disk) DomainDisk(target string) libvirtxml.DomainDisk {
	disk := libvirtxml.DomainDisk{
		Device: d.Device,
		Driver: &libvirtxml.DomainDiskDriver{
			Name: "qemu",
			Type: "raw",
		},
		Target: &libvirtxml.DomainDiskTarget{
			Dev: target,
			Bus: "sata",
		},
	}

	if d.block {
		disk.Source = &libvirtxml.DomainDiskSource{
			Block: &libvirtxml.DomainDiskSourceBlock{Dev: d.Path},
		}
	} else {
		disk.Source = &libvirtxml.DomainDiskSource{
			File: &libvirtxml.DomainDiskSourceFile{File: d.Path},
		}
	}

	if d.Device == DeviceCDROM {
		disk.ReadOnly = &libvirtxml.DomainDiskReadOnly{}
	}

	return disk
}
