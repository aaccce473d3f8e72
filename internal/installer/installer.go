// Package installer prepares install media for a guest.
//
// An Installer is created per install attempt. It classifies the location
// the user gave, validates it, fetches what the guest needs to boot the
// installer (a boot ISO, or a kernel and initrd) and decides which device
// the guest boots from. Everything it downloads or uploads is recorded and
// released by Cleanup.
//
// Typical use:
//
//	inst, err := installer.New(installer.Options{
//	    Location: "https://mirror.example.com/fedora/41/Everything/x86_64/os/",
//	    Remote:   client.IsRemote(),
//	    Uploader: storage.NewManager(client.Libvirt(), logger),
//	    Logger:   logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer inst.Cleanup(ctx)
//
//	if err := inst.Prepare(ctx, meter); err != nil {
//	    return err
//	}
package installer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jbweber/virtinst/internal/device"
	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/initrd"
	"github.com/jbweber/virtinst/internal/media"
	"github.com/jbweber/virtinst/internal/storage"
	"github.com/jbweber/virtinst/internal/store"
)

// Boot devices returned by BootDevice.
const (
	BootCDROM = "cdrom"
	BootHD    = "hd"
)

// ErrInvalidLocation matches every location validation failure.
var ErrInvalidLocation = errors.New("invalid install location")

const nfsUnsupported = "NFS URL installs are no longer supported. " +
	"Access your install media over an alternate transport like HTTP, " +
	"or manually mount the NFS share and install from the local directory mount point."

// LocationError is returned when a location is neither a network source
// nor usable local media.
type LocationError struct {
	Location string
	Err      error
}

func (e *LocationError) Error() string {
	msg := fmt.Sprintf("Validating install media '%s' failed: %s", e.Location, e.Err)
	if e.IsNFS() {
		msg += ". " + nfsUnsupported
	}
	return msg
}

// Unwrap exposes both ErrInvalidLocation and the validation cause.
func (e *LocationError) Unwrap() []error {
	return []error{ErrInvalidLocation, e.Err}
}

// IsNFS reports whether the rejected location used the nfs: prefix.
func (e *LocationError) IsNFS() bool {
	return strings.HasPrefix(e.Location, "nfs:")
}

// Options configure a new Installer. Zero valued function fields fall back
// to the production implementations.
type Options struct {
	Location         string
	CDROM            bool
	LiveCD           bool
	InitrdInjections []string
	ExtraArgs        []string

	// Remote is true when the hypervisor runs on another host.
	Remote bool

	// ScratchDir receives fetched files. Defaults to ResolveScratchDir("", Remote).
	ScratchDir string

	Logger zerolog.Logger

	Stat        media.StatFunc
	NewFetcher  FetcherFactory
	DetectStore StoreDetector
	Inject      InjectFunc
	OSDB        OSDatabase
	Uploader    Uploader
}

// Installer holds the state of one install attempt. It is not safe for
// concurrent use.
type Installer struct {
	location         string
	cdrom            bool
	livecd           bool
	remote           bool
	scratchDir       string
	initrdInjections []string
	extraArgs        []string

	// Cached per location, cleared by SetLocation.
	fetcher fetch.Fetcher
	store   store.Store

	cdromPath     string
	installKernel string
	installInitrd string
	tmpFiles      []string
	tmpVols       []storage.VolumeRef

	logger      zerolog.Logger
	stat        media.StatFunc
	newFetcher  FetcherFactory
	detectStore StoreDetector
	inject      InjectFunc
	osdb        OSDatabase
	uploader    Uploader
}

// New returns an Installer for opts. A non-empty location is validated
// as if passed to SetLocation.
func New(opts Options) (*Installer, error) {
	i := &Installer{
		cdrom:            opts.CDROM,
		livecd:           opts.LiveCD,
		remote:           opts.Remote,
		scratchDir:       opts.ScratchDir,
		initrdInjections: append([]string(nil), opts.InitrdInjections...),
		extraArgs:        append([]string(nil), opts.ExtraArgs...),
		logger:           opts.Logger,
		stat:             opts.Stat,
		newFetcher:       opts.NewFetcher,
		detectStore:      opts.DetectStore,
		inject:           opts.Inject,
		osdb:             opts.OSDB,
		uploader:         opts.Uploader,
	}

	if i.stat == nil {
		i.stat = os.Stat
	}
	if i.newFetcher == nil {
		i.newFetcher = fetch.New
	}
	if i.detectStore == nil {
		i.detectStore = store.Detect
	}
	if i.inject == nil {
		i.inject = initrd.Inject
	}

	if opts.Location != "" {
		if err := i.SetLocation(opts.Location); err != nil {
			return nil, err
		}
	}

	return i, nil
}

func (i *Installer) classifier() media.Classifier {
	return media.Classifier{Stat: i.stat}
}

// isNetworkSource reports whether val is accepted without local validation:
// anything on a remote connection, or a location with a URL scheme.
func (i *Installer) isNetworkSource(val string) bool {
	return i.remote || media.HasURLScheme(val)
}

func (i *Installer) isLocalDir(val string) bool {
	info, err := i.stat(val)
	return err == nil && info.IsDir()
}

// SetLocation validates val and makes it the install location. Cached
// fetcher and store state is discarded first, whether or not val is valid.
//
// Network sources and local directory trees are accepted as given. Anything
// else must be a local ISO image or optical device, and is stored as its
// absolute path.
func (i *Installer) SetLocation(val string) error {
	i.fetcher = nil
	i.store = nil

	if i.isNetworkSource(val) {
		i.logger.Debug().Str("location", val).Msg("install location is a network source")
		i.location = val
		return nil
	}
	if i.isLocalDir(val) {
		i.logger.Debug().Str("location", val).Msg("install location is a local directory tree")
		i.location = val
		return nil
	}

	disk := &device.Disk{Device: device.DeviceCDROM, Path: val, Stat: i.stat}
	if err := disk.Validate(); err != nil {
		i.logger.Debug().Err(err).Str("location", val).Msg("error validating install location")
		lerr := &LocationError{Location: val, Err: err}
		if lerr.IsNFS() {
			i.logger.Warn().Msg(nfsUnsupported)
		}
		return lerr
	}

	i.location = disk.Path
	return nil
}

// Location returns the validated install location.
func (i *Installer) Location() string { return i.location }

// CDROM reports whether the location is attached to the guest as a cdrom.
func (i *Installer) CDROM() bool { return i.cdrom }

// LiveCD reports whether the guest runs from the media without installing.
func (i *Installer) LiveCD() bool { return i.livecd }

// ScratchDir returns the directory fetched files are written to.
func (i *Installer) ScratchDir() string { return i.scratchDir }

// MediaType classifies the current location. It is recomputed on every call.
func (i *Installer) MediaType() media.Type {
	return i.classifier().Classify(media.Inputs{
		Location: i.location,
		CDROM:    i.cdrom,
		Remote:   i.remote,
	})
}

// NeedsCDROM reports whether the guest needs a cdrom device for the media.
func (i *Installer) NeedsCDROM() bool {
	return i.MediaType().NeedsCDROM()
}

// ScratchDirRequired reports whether Prepare writes to the scratch dir.
func (i *Installer) ScratchDirRequired() bool {
	return i.MediaType().ScratchDirRequired()
}

// HasInstallPhase reports whether the guest runs an installer before
// booting from disk. Live CDs have no install phase.
func (i *Installer) HasInstallPhase() bool {
	return !i.livecd
}

// BootDevice returns the device the guest boots from. During the install
// phase that is always the cdrom. Afterwards a live CD on local media keeps
// booting from the cdrom, everything else boots from disk.
func (i *Installer) BootDevice(isInstall bool) string {
	persistentCD := i.MediaType().IsLocal() && i.cdrom && i.livecd
	if isInstall || persistentCD {
		return BootCDROM
	}
	return BootHD
}

// CDROMPath returns the media attached as the guest cdrom after Prepare,
// or "" when none is needed.
func (i *Installer) CDROMPath() string { return i.cdromPath }

// InstallKernel returns the kernel the guest boots during install.
func (i *Installer) InstallKernel() string { return i.installKernel }

// InstallInitrd returns the initrd the guest boots during install.
func (i *Installer) InstallInitrd() string { return i.installInitrd }

// ExtraArgs returns the kernel command line arguments for the install.
func (i *Installer) ExtraArgs() []string {
	return append([]string(nil), i.extraArgs...)
}

// TempFiles returns local files Cleanup will remove.
func (i *Installer) TempFiles() []string {
	return append([]string(nil), i.tmpFiles...)
}

// TempVolumes returns uploaded volumes Cleanup will delete.
func (i *Installer) TempVolumes() []storage.VolumeRef {
	return append([]storage.VolumeRef(nil), i.tmpVols...)
}
