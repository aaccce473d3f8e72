package installer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/media"
	"github.com/jbweber/virtinst/internal/storage"
	"github.com/jbweber/virtinst/internal/store"
)

// getFetcher returns the cached fetcher, creating it on first use, and
// rebinds it to meter.
func (i *Installer) getFetcher(meter fetch.Meter) (fetch.Fetcher, error) {
	if i.fetcher == nil {
		if i.scratchDir == "" {
			dir, err := ResolveScratchDir("", i.remote)
			if err != nil {
				return nil, err
			}
			i.scratchDir = dir
		}
		if err := os.MkdirAll(i.scratchDir, 0o751); err != nil {
			return nil, fmt.Errorf("failed to create scratch dir %s: %w", i.scratchDir, err)
		}
		i.fetcher = i.newFetcher(i.location, i.scratchDir, meter)
	}

	i.fetcher.SetMeter(fetch.EnsureMeter(meter))
	return i.fetcher, nil
}

// getStore returns the cached store, detecting it on first use. f must be
// prepared.
func (i *Installer) getStore(ctx context.Context, f fetch.Fetcher) (store.Store, error) {
	if i.store == nil {
		s, err := i.detectStore(ctx, f, i.osLookup())
		if err != nil {
			return nil, err
		}
		i.logger.Debug().Str("store", s.Name()).Msg("detected install tree")
		i.store = s
	}
	return i.store, nil
}

func (i *Installer) osLookup() store.OSLookup {
	if i.osdb == nil {
		return nil
	}
	return i.osdb
}

func (i *Installer) cleanupFetcher(f fetch.Fetcher) {
	if err := f.CleanupLocation(); err != nil {
		i.logger.Debug().Err(err).Str("location", f.Location()).Msg("failed to clean up install location")
	}
}

// Prepare fetches whatever the guest needs to start the install. Media
// already attached to the guest needs nothing. A local ISO or device used
// as a cdrom is attached as is. Every other location is opened with a
// fetcher, which is released again before Prepare returns: URL trees
// attached as a cdrom contribute their boot ISO, all others a kernel and
// initrd.
func (i *Installer) Prepare(ctx context.Context, meter fetch.Meter) error {
	mt := i.MediaType()
	if mt == media.CDROMImplied {
		return nil
	}

	var cdromPath string
	if mt == media.CDROMPath || mt == media.CDROMDevice {
		cdromPath = i.location
	}

	if mt != media.CDROMPath {
		f, err := i.getFetcher(meter)
		if err != nil {
			return err
		}
		defer i.cleanupFetcher(f)

		if err := f.PrepareLocation(ctx); err != nil {
			i.logger.Debug().Err(err).Str("location", i.location).Msg("error preparing install location")
			return fmt.Errorf("Invalid install location: %w", err)
		}

		if mt == media.CDROMURL {
			cdromPath, err = i.prepareCDROMURL(ctx, f)
		} else {
			err = i.prepareKernel(ctx, f)
		}
		if err != nil {
			return err
		}
	}

	i.cdromPath = cdromPath
	return nil
}

func (i *Installer) prepareCDROMURL(ctx context.Context, f fetch.Fetcher) (string, error) {
	s, err := i.getStore(ctx, f)
	if err != nil {
		return "", err
	}

	iso, err := s.AcquireBootISO(ctx)
	if err != nil {
		return "", err
	}
	i.tmpFiles = append(i.tmpFiles, iso)
	return iso, nil
}

func (i *Installer) prepareKernel(ctx context.Context, f fetch.Fetcher) error {
	s, err := i.getStore(ctx, f)
	if err != nil {
		return err
	}

	kernel, initrd, args, err := s.AcquireKernel(ctx)
	if err != nil {
		return err
	}
	i.tmpFiles = append(i.tmpFiles, kernel)
	if initrd != "" {
		i.tmpFiles = append(i.tmpFiles, initrd)
	}

	if len(i.initrdInjections) > 0 {
		if err := i.inject(initrd, i.initrdInjections, f.ScratchDir()); err != nil {
			return fmt.Errorf("failed to inject files into initrd: %w", err)
		}
	}

	if i.uploader == nil {
		return errors.New("no uploader configured for kernel and initrd")
	}
	res, err := i.uploader.UploadKernelInitrd(ctx, storage.UploadRequest{
		Kernel:     kernel,
		Initrd:     initrd,
		ScratchDir: f.ScratchDir(),
		Remote:     i.remote,
		Meter:      f.Meter(),
	})
	if err != nil {
		return err
	}
	i.tmpVols = append(i.tmpVols, res.Volumes...)

	i.installKernel = res.Kernel
	i.installInitrd = res.Initrd
	if args != "" {
		i.extraArgs = append(i.extraArgs, args)
	}
	return nil
}

// CheckLocation opens URL backed locations and detects their install tree
// so that a bad location fails early. Other media types are not checked.
func (i *Installer) CheckLocation(ctx context.Context) error {
	if !i.MediaType().IsURLBacked() {
		return nil
	}

	f, err := i.getFetcher(nil)
	if err != nil {
		return err
	}
	defer i.cleanupFetcher(f)

	if err := f.PrepareLocation(ctx); err != nil {
		return err
	}

	_, err = i.getStore(ctx, f)
	return err
}

// DetectDistro returns the OS database name of the install media. Detection
// is best effort: any failure is logged and reported as not found.
func (i *Installer) DetectDistro(ctx context.Context) (string, bool) {
	distro, err := i.detectDistro(ctx)
	if err != nil {
		i.logger.Debug().Err(err).Msg("error attempting to detect distro")
		distro = ""
	}

	i.logger.Debug().Str("distro", distro).Msg("detect distro returned")
	return distro, distro != ""
}

func (i *Installer) detectDistro(ctx context.Context) (string, error) {
	if i.location == "" {
		return "", errors.New("no install location set")
	}

	if i.classifier().IsURL(i.location, i.remote) {
		f, err := i.getFetcher(nil)
		if err != nil {
			return "", err
		}
		defer i.cleanupFetcher(f)

		if err := f.PrepareLocation(ctx); err != nil {
			return "", err
		}
		s, err := i.getStore(ctx, f)
		if err != nil {
			return "", err
		}
		return s.OSInfo(), nil
	}

	if i.remote {
		i.logger.Debug().Msg("can't detect distro for media on remote connection")
		return "", nil
	}

	if i.osdb == nil {
		return "", errors.New("no OS database configured")
	}
	return i.osdb.LookupByMedia(i.location)
}

// Cleanup removes fetched files and deletes uploaded volumes. Failures are
// logged and otherwise ignored.
func (i *Installer) Cleanup(ctx context.Context) {
	for _, path := range i.tmpFiles {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			i.logger.Warn().Err(err).Str("file", path).Msg("failed to remove temporary file")
			continue
		}
		i.logger.Debug().Str("file", path).Msg("removed temporary file")
	}
	i.tmpFiles = nil

	if len(i.tmpVols) > 0 && i.uploader != nil {
		if failed := i.uploader.DeleteVolumes(ctx, i.tmpVols); failed > 0 {
			i.logger.Warn().Int("failed", failed).Msg("failed to delete some temporary volumes")
		}
	}
	i.tmpVols = nil
}
