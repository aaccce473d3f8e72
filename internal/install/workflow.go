package install

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jbweber/virtinst/api/v1alpha1"
	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/status"
)

// Runner drives installations through their phases.
type Runner struct {
	open   SessionFactory
	logger zerolog.Logger
}

// NewRunner returns a Runner opening sessions with open.
func NewRunner(open SessionFactory, logger zerolog.Logger) *Runner {
	return &Runner{open: open, logger: logger}
}

// Validate accepts the installation location and classifies its media.
// Any status from a previous run is discarded first. On success the
// installation is Validated and the open session is returned; the caller
// owns it and must call Cleanup.
func (r *Runner) Validate(ctx context.Context, inst *v1alpha1.Installation) (Session, error) {
	inst.ResetStatus()
	logger := r.logger.With().Str("installation", inst.Name).Logger()

	logger.Debug().Str("location", inst.Spec.Location).Bool("cdrom", inst.Spec.CDROM).Msg("validating install location")
	s, err := r.open(inst.Spec)
	if err != nil {
		status.MarkLocationInvalid(inst, err)
		return nil, err
	}

	if err := s.CheckLocation(ctx); err != nil {
		s.Cleanup(ctx)
		status.MarkLocationInvalid(inst, err)
		return nil, err
	}

	mediaType := s.MediaType()
	if err := status.TransitionToValidated(inst, mediaType.String()); err != nil {
		s.Cleanup(ctx)
		return nil, err
	}
	inst.Status.BootDevice = s.BootDevice(s.HasInstallPhase())

	logger.Debug().Stringer("media", mediaType).Str("boot", inst.Status.BootDevice).Msg("install location accepted")
	return s, nil
}

// Detect records the distribution on the media. Detection is best effort:
// nothing found leaves the phase alone.
func (r *Runner) Detect(ctx context.Context, inst *v1alpha1.Installation, s Session) {
	distro, ok := s.DetectDistro(ctx)
	if !ok {
		inst.Status.Distro = ""
		status.MarkDistroUnknown(inst)
		return
	}

	inst.Status.Distro = distro
	status.MarkDistroDetected(inst, distro)
}

// Prepare fetches the boot media of a validated installation and records
// what the install phase boots from.
func (r *Runner) Prepare(ctx context.Context, inst *v1alpha1.Installation, s Session, meter fetch.Meter) error {
	if inst.GetPhase() != v1alpha1.InstallPhaseValidated {
		return fmt.Errorf("installation %s is %s, not Validated", inst.Name, inst.GetPhase())
	}

	if err := s.Prepare(ctx, meter); err != nil {
		status.MarkMediaFailed(inst, err)
		return fmt.Errorf("failed to prepare install media: %w", err)
	}

	inst.Status.CDROMPath = s.CDROMPath()
	inst.Status.Kernel = s.InstallKernel()
	inst.Status.Initrd = s.InstallInitrd()
	inst.Status.KernelArgs = strings.Join(s.ExtraArgs(), " ")

	return status.TransitionToPrepared(inst)
}

// Run validates, detects and prepares inst in one go. The returned session
// holds the prepared media; on error nothing is left behind.
func (r *Runner) Run(ctx context.Context, inst *v1alpha1.Installation, meter fetch.Meter) (Session, error) {
	s, err := r.Validate(ctx, inst)
	if err != nil {
		return nil, err
	}

	r.Detect(ctx, inst, s)

	if err := r.Prepare(ctx, inst, s, meter); err != nil {
		s.Cleanup(ctx)
		return nil, err
	}

	return s, nil
}

// Install runs inst and defines its install domain through lv. If the
// domain cannot be defined the prepared media is cleaned up again, so on
// error nothing is left behind.
func (r *Runner) Install(ctx context.Context, inst *v1alpha1.Installation, meter fetch.Meter, lv libvirtClient) (Session, error) {
	s, err := r.Run(ctx, inst, meter)
	if err != nil {
		return nil, err
	}

	if err := Define(lv, inst, r.logger); err != nil {
		s.Cleanup(ctx)
		return nil, err
	}

	return s, nil
}
