package store

import (
	"context"
	"fmt"

	"github.com/jbweber/virtinst/internal/fetch"
)

const diskInfoPath = ".disk/info"

// debianLayout is one place a Debian style tree keeps its installer.
type debianLayout struct {
	kernel  string
	initrd  string
	bootISO string
}

var (
	ubuntuLayouts = []debianLayout{
		{kernel: "casper/vmlinuz", initrd: "casper/initrd"},
		{kernel: "casper/vmlinuz", initrd: "casper/initrd.gz"},
	}

	debianLayouts = []debianLayout{
		// install ISO
		{kernel: "install.amd/vmlinuz", initrd: "install.amd/initrd.gz"},
		// mirror: .../dists/<suite>/main/installer-amd64/
		{
			kernel:  "current/images/netboot/debian-installer/amd64/linux",
			initrd:  "current/images/netboot/debian-installer/amd64/initrd.gz",
			bootISO: "current/images/netboot/mini.iso",
		},
	}
)

type debianStore struct {
	name    string
	fetcher fetch.Fetcher
	layout  debianLayout
	osinfo  string
}

func detectLayout(ctx context.Context, f fetch.Fetcher, layouts []debianLayout) (debianLayout, bool) {
	for _, l := range layouts {
		if f.HasFile(ctx, l.kernel) && f.HasFile(ctx, l.initrd) {
			return l, true
		}
	}
	return debianLayout{}, false
}

func detectUbuntu(ctx context.Context, f fetch.Fetcher, db OSLookup) (Store, bool) {
	l, ok := detectLayout(ctx, f, ubuntuLayouts)
	if !ok {
		return nil, false
	}
	return &debianStore{
		name:    "Ubuntu",
		fetcher: f,
		layout:  l,
		osinfo:  lookupDiskInfo(ctx, f, db, diskInfoPath),
	}, true
}

func detectDebian(ctx context.Context, f fetch.Fetcher, db OSLookup) (Store, bool) {
	l, ok := detectLayout(ctx, f, debianLayouts)
	if !ok {
		return nil, false
	}
	return &debianStore{
		name:    "Debian",
		fetcher: f,
		layout:  l,
		osinfo:  lookupDiskInfo(ctx, f, db, diskInfoPath),
	}, true
}

func (s *debianStore) Name() string   { return s.name }
func (s *debianStore) OSInfo() string { return s.osinfo }

func (s *debianStore) AcquireBootISO(ctx context.Context) (string, error) {
	if s.layout.bootISO == "" || !s.fetcher.HasFile(ctx, s.layout.bootISO) {
		return "", fmt.Errorf("could not find a boot ISO in %s tree", s.name)
	}
	return s.fetcher.Acquire(ctx, s.layout.bootISO)
}

func (s *debianStore) AcquireKernel(ctx context.Context) (string, string, string, error) {
	kernel, initrd, err := acquirePair(ctx, s.fetcher, s.layout.kernel, s.layout.initrd)
	if err != nil {
		return "", "", "", err
	}
	return kernel, initrd, "", nil
}
