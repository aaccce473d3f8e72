// Package initrd appends files to an install initrd.
//
// The Linux kernel accepts an initramfs made of several concatenated cpio
// archives, each optionally compressed. Inject writes the requested files
// into a gzip-compressed newc (SVR4) archive and appends it to the initrd,
// so a kickstart or preseed file ends up at the root of the installer's
// filesystem without unpacking the original image.
package initrd

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cavaliergopher/cpio"
)

// Inject appends files to the initrd at path. Each file is placed at the
// archive root under its base name. The archive is staged in scratchDir
// before it is appended.
func Inject(initrd string, files []string, scratchDir string) error {
	if len(files) == 0 {
		return nil
	}

	staged, err := os.CreateTemp(scratchDir, "virtinst-initrd-inject.")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	defer func() {
		_ = staged.Close()
		_ = os.Remove(staged.Name())
	}()

	if err := writeArchive(staged, files); err != nil {
		return err
	}

	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind staging file: %w", err)
	}

	out, err := os.OpenFile(initrd, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("failed to open initrd %s: %w", initrd, err)
	}
	if _, err := io.Copy(out, staged); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to append to initrd %s: %w", initrd, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close initrd %s: %w", initrd, err)
	}

	return nil
}

func writeArchive(w io.Writer, files []string) error {
	gz := gzip.NewWriter(w)
	cw := cpio.NewWriter(gz)

	for _, path := range files {
		if err := addFile(cw, path); err != nil {
			return err
		}
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to finish cpio archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

func addFile(cw *cpio.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open injection %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat injection %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("injection %s is not a regular file", path)
	}

	hdr := &cpio.Header{
		Name:    filepath.Base(path),
		Mode:    cpio.TypeReg | cpio.FileMode(info.Mode().Perm()),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Links:   1,
	}
	if err := cw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", path, err)
	}
	if _, err := io.Copy(cw, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
