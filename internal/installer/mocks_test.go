package installer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/storage"
	"github.com/jbweber/virtinst/internal/store"
)

// fakeInfo is a minimal fs.FileInfo.
type fakeInfo struct {
	name string
	mode fs.FileMode
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return 0 }
func (f fakeInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeInfo) Sys() any           { return nil }

// fakeFS answers stat calls from a fixed set of absolute paths.
type fakeFS map[string]fs.FileMode

func (f fakeFS) stat(name string) (fs.FileInfo, error) {
	mode, ok := f[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return fakeInfo{name: filepath.Base(name), mode: mode}, nil
}

func defaultFS() fakeFS {
	return fakeFS{
		"/srv/tree":       fs.ModeDir | 0o755,
		"/srv/fedora.iso": 0o644,
		"/dev/sr0":        fs.ModeDevice | 0o660,
	}
}

// mockFetcher records how the installer drives a fetcher.
type mockFetcher struct {
	location   string
	scratchDir string
	meter      fetch.Meter

	prepareErr error
	cleanupErr error

	prepareCalls int
	cleanupCalls int
}

func (m *mockFetcher) Location() string           { return m.location }
func (m *mockFetcher) ScratchDir() string         { return m.scratchDir }
func (m *mockFetcher) Meter() fetch.Meter         { return m.meter }
func (m *mockFetcher) SetMeter(meter fetch.Meter) { m.meter = meter }

func (m *mockFetcher) PrepareLocation(ctx context.Context) error {
	m.prepareCalls++
	return m.prepareErr
}

func (m *mockFetcher) CleanupLocation() error {
	m.cleanupCalls++
	return m.cleanupErr
}

func (m *mockFetcher) HasFile(ctx context.Context, name string) bool { return false }

func (m *mockFetcher) ReadFile(ctx context.Context, name string) ([]byte, error) {
	return nil, fs.ErrNotExist
}

func (m *mockFetcher) Acquire(ctx context.Context, name string) (string, error) {
	return "", fs.ErrNotExist
}

// mockStore hands out files created in dir.
type mockStore struct {
	dir    string
	args   string
	osInfo string

	isoErr    error
	kernelErr error
}

func (m *mockStore) Name() string { return "mock tree" }

func (m *mockStore) AcquireBootISO(ctx context.Context) (string, error) {
	if m.isoErr != nil {
		return "", m.isoErr
	}
	return touch(m.dir, "boot.iso")
}

func (m *mockStore) AcquireKernel(ctx context.Context) (string, string, string, error) {
	if m.kernelErr != nil {
		return "", "", "", m.kernelErr
	}
	kernel, err := touch(m.dir, "vmlinuz")
	if err != nil {
		return "", "", "", err
	}
	initrd, err := touch(m.dir, "initrd.img")
	if err != nil {
		return "", "", "", err
	}
	return kernel, initrd, m.args, nil
}

func (m *mockStore) OSInfo() string { return m.osInfo }

func touch(dir, name string) (string, error) {
	path := filepath.Join(dir, "virtinst-"+name)
	return path, os.WriteFile(path, []byte(name), 0o644)
}

// mockUploader returns the files unchanged plus one fake volume each.
type mockUploader struct {
	uploadErr error
	failed    int

	requests []storage.UploadRequest
	deleted  [][]storage.VolumeRef
}

func (m *mockUploader) UploadKernelInitrd(ctx context.Context, req storage.UploadRequest) (*storage.UploadResult, error) {
	m.requests = append(m.requests, req)
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return &storage.UploadResult{
		Kernel:  "/pool/" + filepath.Base(req.Kernel),
		Initrd:  "/pool/" + filepath.Base(req.Initrd),
		Volumes: []storage.VolumeRef{
			{Pool: storage.ScratchPool, Name: filepath.Base(req.Kernel)},
			{Pool: storage.ScratchPool, Name: filepath.Base(req.Initrd)},
		},
	}, nil
}

func (m *mockUploader) DeleteVolumes(ctx context.Context, refs []storage.VolumeRef) int {
	m.deleted = append(m.deleted, refs)
	return m.failed
}

// mockOSDB resolves a fixed set of media paths.
type mockOSDB struct {
	media map[string]string
	err   error
}

func (m *mockOSDB) LookupByTreeinfo(family, version string) (string, bool) { return "", false }
func (m *mockOSDB) LookupByDiskInfo(text string) (string, bool)            { return "", false }

func (m *mockOSDB) LookupByMedia(path string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.media[path], nil
}

// harness wires an Installer to mocks and keeps them reachable.
type harness struct {
	fs        fakeFS
	fetchers  []*mockFetcher
	store     *mockStore
	storeErr  error
	detects   int
	injected  [][]string
	injectErr error
	uploader  *mockUploader
	osdb      *mockOSDB

	// prepareErr is set on every fetcher created.
	prepareErr error
}

func newHarness(dir string) *harness {
	return &harness{
		fs:       defaultFS(),
		store:    &mockStore{dir: dir, args: "inst.repo=http://mirror/os", osInfo: "fedora41"},
		uploader: &mockUploader{},
		osdb:     &mockOSDB{media: map[string]string{"/srv/fedora.iso": "fedora40"}},
	}
}

func (h *harness) options(location string, cdrom bool, scratchDir string) Options {
	return Options{
		Location:   location,
		CDROM:      cdrom,
		ScratchDir: scratchDir,
		Stat:       h.fs.stat,
		NewFetcher: func(location, scratchDir string, meter fetch.Meter) fetch.Fetcher {
			f := &mockFetcher{location: location, scratchDir: scratchDir, meter: meter, prepareErr: h.prepareErr}
			h.fetchers = append(h.fetchers, f)
			return f
		},
		DetectStore: func(ctx context.Context, f fetch.Fetcher, db store.OSLookup) (store.Store, error) {
			h.detects++
			if h.storeErr != nil {
				return nil, h.storeErr
			}
			return h.store, nil
		},
		Inject: func(initrd string, files []string, scratchDir string) error {
			h.injected = append(h.injected, append([]string{initrd}, files...))
			return h.injectErr
		},
		OSDB:     h.osdb,
		Uploader: h.uploader,
	}
}

func (h *harness) lastFetcher() *mockFetcher {
	if len(h.fetchers) == 0 {
		return nil
	}
	return h.fetchers[len(h.fetchers)-1]
}
