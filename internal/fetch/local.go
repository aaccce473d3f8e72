package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kdomanski/iso9660"
)

// localBackend reads from a directory tree or an ISO image. Which one is
// decided when the location is prepared.
type localBackend struct {
	location string

	// directory tree
	root string

	// ISO image or optical device
	file  *os.File
	image *iso9660.Image
}

func newLocalBackend(location string) *localBackend {
	return &localBackend{location: location}
}

func (b *localBackend) prepare(_ context.Context) error {
	info, err := os.Stat(b.location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("location %s does not exist", b.location)
		}
		return fmt.Errorf("failed to stat %s: %w", b.location, err)
	}

	if info.IsDir() {
		b.root = b.location
		return nil
	}

	f, err := os.Open(b.location)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", b.location, err)
	}

	img, err := iso9660.OpenImage(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%s is not a directory or ISO image: %w", b.location, err)
	}

	b.file = f
	b.image = img
	return nil
}

func (b *localBackend) cleanup() error {
	b.root = ""
	b.image = nil
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	return err
}

func (b *localBackend) exists(_ context.Context, name string) (bool, error) {
	switch {
	case b.root != "":
		_, err := os.Stat(filepath.Join(b.root, filepath.FromSlash(name)))
		if err != nil {
			return false, nil
		}
		return true, nil
	case b.image != nil:
		f, err := b.lookupISO(name)
		if err != nil {
			return false, nil
		}
		return f != nil, nil
	default:
		return false, fmt.Errorf("location %s not prepared", b.location)
	}
}

func (b *localBackend) open(_ context.Context, name string) (io.ReadCloser, int64, error) {
	switch {
	case b.root != "":
		f, err := os.Open(filepath.Join(b.root, filepath.FromSlash(name)))
		if err != nil {
			return nil, 0, err
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, 0, err
		}
		if info.IsDir() {
			_ = f.Close()
			return nil, 0, fmt.Errorf("%s is a directory", name)
		}
		return f, info.Size(), nil
	case b.image != nil:
		f, err := b.lookupISO(name)
		if err != nil {
			return nil, 0, err
		}
		if f.IsDir() {
			return nil, 0, fmt.Errorf("%s is a directory", name)
		}
		return io.NopCloser(f.Reader()), f.Size(), nil
	default:
		return nil, 0, fmt.Errorf("location %s not prepared", b.location)
	}
}

// lookupISO walks the image directory tree one path component at a time.
func (b *localBackend) lookupISO(name string) (*iso9660.File, error) {
	cur, err := b.image.RootDir()
	if err != nil {
		return nil, fmt.Errorf("failed to read ISO root directory: %w", err)
	}

	for _, part := range strings.Split(path.Clean("/"+name), "/") {
		if part == "" {
			continue
		}
		if !cur.IsDir() {
			return nil, fmt.Errorf("%s not found in %s", name, b.location)
		}
		children, err := cur.GetChildren()
		if err != nil {
			return nil, fmt.Errorf("failed to list ISO directory: %w", err)
		}

		var next *iso9660.File
		for _, child := range children {
			if isoNameEqual(child.Name(), part) {
				next = child
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%s not found in %s", name, b.location)
		}
		cur = next
	}

	return cur, nil
}

// isoNameEqual compares an ISO9660 identifier with a path component,
// ignoring the ";1" version suffix, a trailing dot and case.
func isoNameEqual(isoName, want string) bool {
	if i := strings.IndexByte(isoName, ';'); i >= 0 {
		isoName = isoName[:i]
	}
	isoName = strings.TrimSuffix(isoName, ".")
	return strings.EqualFold(isoName, want)
}
