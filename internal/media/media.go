// Package media classifies an install location into one of the install
// media types the installer knows how to prepare.
package media

import (
	"io/fs"
	"os"
	"strings"
)

// Type is the classification of an install source.
//
// The set is closed: the six constants below are the only valid values.
type Type string

const (
	// Directory is a local directory holding a distribution tree.
	Directory Type = "directory"
	// CDROMDevice is a local ISO file or physical optical device used as
	// the location for a kernel/initrd install.
	CDROMDevice Type = "cdrom-device"
	// LocationURL is a remote install tree (http, https, ftp).
	LocationURL Type = "location-url"
	// CDROMPath is a local ISO or device attached to the guest as a cdrom.
	CDROMPath Type = "cdrom-path"
	// CDROMURL is a remote tree whose boot ISO is fetched and attached.
	CDROMURL Type = "cdrom-url"
	// CDROMImplied uses media already attached to the guest.
	CDROMImplied Type = "cdrom-implied"
)

// All returns every media type in declaration order.
func All() []Type {
	return []Type{Directory, CDROMDevice, LocationURL, CDROMPath, CDROMURL, CDROMImplied}
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// NeedsCDROM reports whether the guest needs a cdrom device for this media.
func (t Type) NeedsCDROM() bool {
	switch t {
	case CDROMPath, CDROMDevice, CDROMURL:
		return true
	default:
		return false
	}
}

// ScratchDirRequired reports whether preparing this media writes to the
// scratch directory.
func (t Type) ScratchDirRequired() bool {
	switch t {
	case CDROMURL, LocationURL, Directory, CDROMDevice:
		return true
	default:
		return false
	}
}

// IsLocal reports whether the media lives on the host running the guest.
func (t Type) IsLocal() bool {
	switch t {
	case CDROMPath, CDROMImplied, Directory, CDROMDevice:
		return true
	default:
		return false
	}
}

// IsURLBacked reports whether the media is a network install tree.
func (t Type) IsURLBacked() bool {
	return t == CDROMURL || t == LocationURL
}

// StatFunc reports file info for a path. os.Stat satisfies it.
type StatFunc func(name string) (fs.FileInfo, error)

// Inputs are the installer fields the classification depends on.
type Inputs struct {
	Location string
	CDROM    bool
	Remote   bool
}

// Classifier determines media types. The zero value uses os.Stat.
type Classifier struct {
	Stat StatFunc
}

var urlPrefixes = []string{"http://", "https://", "ftp://"}

// HasURLScheme reports whether location starts with a supported URL scheme.
func HasURLScheme(location string) bool {
	for _, p := range urlPrefixes {
		if strings.HasPrefix(location, p) {
			return true
		}
	}
	return false
}

// IsURL reports whether location should be treated as a network source.
//
// On a remote connection every location is a URL. On a local connection a
// path that does not exist is treated as a URL candidate as well, the same
// as anything carrying an http, https or ftp scheme.
func (c Classifier) IsURL(location string, remote bool) bool {
	if remote {
		return true
	}
	if HasURLScheme(location) {
		return true
	}
	if _, err := c.stat()(location); err != nil {
		return true
	}
	return false
}

// Classify returns the media type for the given inputs. First match wins.
func (c Classifier) Classify(in Inputs) Type {
	if in.CDROM && in.Location == "" {
		return CDROMImplied
	}

	if in.Location != "" && c.IsURL(in.Location, in.Remote) {
		if in.CDROM {
			return CDROMURL
		}
		return LocationURL
	}

	if in.CDROM {
		return CDROMPath
	}

	if in.Location != "" {
		if info, err := c.stat()(in.Location); err == nil && info.IsDir() {
			return Directory
		}
	}

	return CDROMDevice
}

func (c Classifier) stat() StatFunc {
	if c.Stat == nil {
		return os.Stat
	}
	return c.Stat
}
