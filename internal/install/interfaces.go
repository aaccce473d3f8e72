package install

import (
	"context"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtinst/api/v1alpha1"
	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/media"
)

// Session is one install attempt over an accepted location.
//
// In production, this is satisfied by *installer.Installer.
// In tests, this is satisfied by mock implementations.
type Session interface {
	MediaType() media.Type
	BootDevice(isInstall bool) string
	HasInstallPhase() bool

	// CheckLocation makes sure a network location serves an install tree.
	CheckLocation(ctx context.Context) error

	// DetectDistro names the OS on the media, if it can.
	DetectDistro(ctx context.Context) (string, bool)

	// Prepare fetches the boot media.
	Prepare(ctx context.Context, meter fetch.Meter) error

	CDROMPath() string
	InstallKernel() string
	InstallInitrd() string
	ExtraArgs() []string

	// Cleanup removes everything Prepare fetched or uploaded.
	Cleanup(ctx context.Context)
}

// SessionFactory opens a session for an installation spec. It fails when
// the location is rejected.
type SessionFactory func(spec v1alpha1.InstallationSpec) (Session, error)

// libvirtClient defines the libvirt operations needed to define the
// install domain.
//
// In production, this is satisfied by *libvirt.Libvirt directly.
type libvirtClient interface {
	// DomainLookupByName looks up a domain by name
	DomainLookupByName(name string) (libvirt.Domain, error)

	// DomainDefineXML defines a domain from XML
	DomainDefineXML(xml string) (libvirt.Domain, error)
}
