// Package fetch retrieves files from an install location.
//
// A Fetcher hides where the install tree lives: a remote HTTP or FTP
// server, a local directory, or an ISO image or optical device that is read
// in place. Callers bracket every use with PrepareLocation and
// CleanupLocation, then probe or pull individual files:
//
//	f := fetch.New(location, scratchDir, meter)
//	if err := f.PrepareLocation(ctx); err != nil {
//	    return err
//	}
//	defer f.CleanupLocation()
//
//	kernel, err := f.Acquire(ctx, "images/pxeboot/vmlinuz")
//
// Acquired files are written to the scratch directory and belong to the
// caller, who must remove them once they are no longer needed.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jbweber/virtinst/internal/naming"
)

// maxReadFileSize bounds ReadFile, which is meant for small metadata files.
const maxReadFileSize = 4 * 1024 * 1024

// Fetcher retrieves files from a single install location.
type Fetcher interface {
	// Location returns the location this fetcher was created for.
	Location() string

	// ScratchDir returns the directory acquired files are written to.
	ScratchDir() string

	// Meter returns the progress meter used for downloads.
	Meter() Meter

	// SetMeter rebinds the progress meter. A nil meter disables progress.
	SetMeter(m Meter)

	// PrepareLocation makes the location readable (connects, opens images).
	PrepareLocation(ctx context.Context) error

	// CleanupLocation releases whatever PrepareLocation acquired.
	// It is safe to call when PrepareLocation failed or was never called.
	CleanupLocation() error

	// HasFile reports whether name exists relative to the location.
	HasFile(ctx context.Context, name string) bool

	// ReadFile returns the contents of a small file.
	ReadFile(ctx context.Context, name string) ([]byte, error)

	// Acquire copies name into the scratch directory and returns the local path.
	Acquire(ctx context.Context, name string) (string, error)
}

// backend is the transport specific part of a fetcher.
type backend interface {
	prepare(ctx context.Context) error
	cleanup() error
	exists(ctx context.Context, name string) (bool, error)
	open(ctx context.Context, name string) (io.ReadCloser, int64, error)
}

type fetcher struct {
	location   string
	scratchDir string
	meter      Meter
	backend    backend
}

// New returns a Fetcher for location. The transport is chosen from the
// location scheme; anything without an http, https or ftp scheme is read
// from the local filesystem. Problems with the location itself surface
// from PrepareLocation.
func New(location, scratchDir string, meter Meter) Fetcher {
	f := &fetcher{
		location:   location,
		scratchDir: scratchDir,
		meter:      EnsureMeter(meter),
	}

	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		f.backend = newHTTPBackend(location)
	case strings.HasPrefix(location, "ftp://"):
		f.backend = newFTPBackend(location)
	default:
		f.backend = newLocalBackend(location)
	}

	return f
}

func (f *fetcher) Location() string   { return f.location }
func (f *fetcher) ScratchDir() string { return f.scratchDir }
func (f *fetcher) Meter() Meter       { return f.meter }

func (f *fetcher) SetMeter(m Meter) {
	f.meter = EnsureMeter(m)
}

func (f *fetcher) PrepareLocation(ctx context.Context) error {
	return f.backend.prepare(ctx)
}

func (f *fetcher) CleanupLocation() error {
	return f.backend.cleanup()
}

func (f *fetcher) HasFile(ctx context.Context, name string) bool {
	ok, err := f.backend.exists(ctx, name)
	if err != nil {
		return false
	}
	return ok
}

func (f *fetcher) ReadFile(ctx context.Context, name string) ([]byte, error) {
	rc, _, err := f.backend.open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxReadFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) > maxReadFileSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", name, maxReadFileSize)
	}

	return data, nil
}

func (f *fetcher) Acquire(ctx context.Context, name string) (string, error) {
	if f.scratchDir == "" {
		return "", fmt.Errorf("no scratch directory configured for %s", f.location)
	}

	rc, size, err := f.backend.open(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	base := path.Base(name)
	out, err := os.CreateTemp(f.scratchDir, naming.ScratchFilePrefix(base))
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file for %s: %w", name, err)
	}

	f.meter.Start(fmt.Sprintf("Retrieving '%s'", base), size)
	written, copyErr := io.Copy(out, &meterReader{r: rc, meter: f.meter})
	closeErr := out.Close()
	f.meter.End(written)

	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("failed to retrieve %s: %w", name, copyErr)
	}

	return filepath.Clean(out.Name()), nil
}

// meterReader reports bytes read to a meter.
type meterReader struct {
	r     io.Reader
	meter Meter
	done  int64
}

func (m *meterReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	if n > 0 {
		m.done += int64(n)
		m.meter.Update(m.done)
	}
	return n, err
}
