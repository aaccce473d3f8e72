package install

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtinst/api/v1alpha1"
	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/media"
)

// mockSession is a mock implementation of Session for testing.
type mockSession struct {
	mediaType media.Type
	livecd    bool
	distro    string

	cdromPath string
	kernel    string
	initrd    string
	args      []string

	// Injected errors
	checkErr   error
	prepareErr error

	// Call tracking
	prepareCalls int
	cleanupCalls int
}

func (m *mockSession) MediaType() media.Type { return m.mediaType }
func (m *mockSession) HasInstallPhase() bool { return !m.livecd }

func (m *mockSession) BootDevice(isInstall bool) string {
	if isInstall {
		return "cdrom"
	}
	return "hd"
}

func (m *mockSession) CheckLocation(ctx context.Context) error { return m.checkErr }

func (m *mockSession) DetectDistro(ctx context.Context) (string, bool) {
	return m.distro, m.distro != ""
}

func (m *mockSession) Prepare(ctx context.Context, meter fetch.Meter) error {
	m.prepareCalls++
	return m.prepareErr
}

func (m *mockSession) CDROMPath() string     { return m.cdromPath }
func (m *mockSession) InstallKernel() string { return m.kernel }
func (m *mockSession) InstallInitrd() string { return m.initrd }
func (m *mockSession) ExtraArgs() []string   { return m.args }

func (m *mockSession) Cleanup(ctx context.Context) { m.cleanupCalls++ }

// newKernelSession returns a session for a network tree booted by kernel.
func newKernelSession() *mockSession {
	return &mockSession{
		mediaType: media.LocationURL,
		distro:    "fedora41",
		kernel:    "/var/lib/libvirt/boot/virtinst-vmlinuz.abc",
		initrd:    "/var/lib/libvirt/boot/virtinst-initrd.img.abc",
		args:      []string{"inst.repo=http://mirror.example.com/os", "console=ttyS0"},
	}
}

// sessionFactory returns a factory handing out s, or failing with err.
func sessionFactory(s *mockSession, err error) (SessionFactory, *[]v1alpha1.InstallationSpec) {
	var specs []v1alpha1.InstallationSpec
	return func(spec v1alpha1.InstallationSpec) (Session, error) {
		specs = append(specs, spec)
		if err != nil {
			return nil, err
		}
		return s, nil
	}, &specs
}

// mockLibvirtClient is a mock implementation of the libvirtClient interface for testing.
type mockLibvirtClient struct {
	domains   map[string]bool
	defineErr error

	// Call tracking
	defined []string
}

func newMockLibvirtClient() *mockLibvirtClient {
	return &mockLibvirtClient{domains: make(map[string]bool)}
}

func (m *mockLibvirtClient) DomainLookupByName(name string) (libvirt.Domain, error) {
	if !m.domains[name] {
		return libvirt.Domain{}, fmt.Errorf("domain not found: %s", name)
	}
	return libvirt.Domain{Name: name}, nil
}

func (m *mockLibvirtClient) DomainDefineXML(xml string) (libvirt.Domain, error) {
	if m.defineErr != nil {
		return libvirt.Domain{}, m.defineErr
	}
	m.defined = append(m.defined, xml)
	return libvirt.Domain{}, nil
}

// fakeFileInfo is a minimal fs.FileInfo for injected stat functions.
type fakeFileInfo struct {
	mode fs.FileMode
}

func (f fakeFileInfo) Name() string       { return "media" }
func (f fakeFileInfo) Size() int64        { return 0 }
func (f fakeFileInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeFileInfo) Sys() any           { return nil }

// statMode returns a stat function reporting mode for every path.
func statMode(mode fs.FileMode) func(string) (fs.FileInfo, error) {
	return func(string) (fs.FileInfo, error) {
		return fakeFileInfo{mode: mode}, nil
	}
}
