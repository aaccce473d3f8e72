package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtinst/api/v1alpha1"
	"github.com/jbweber/virtinst/internal/config"
	"github.com/jbweber/virtinst/internal/fetch"
	"github.com/jbweber/virtinst/internal/install"
	"github.com/jbweber/virtinst/internal/installer"
	"github.com/jbweber/virtinst/internal/libvirt"
	"github.com/jbweber/virtinst/internal/loader"
	"github.com/jbweber/virtinst/internal/logging"
	"github.com/jbweber/virtinst/internal/osdb"
	"github.com/jbweber/virtinst/internal/storage"
)

var (
	prepareKeep   bool
	prepareXML    bool
	prepareDefine bool

	saveStatus bool
)

// Installation commands
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Validate and prepare install media",
	Long: `Run an Installation resource through the installer.

An Installation names the install location and how the guest should use
it. Each subcommand takes the resource further:

  validate  accept the location and classify the media
  detect    validate, then identify the distribution
  prepare   validate, detect and fetch the boot media

The resource is printed with its status after every run, including
failed ones.`,
}

func init() {
	installCmd.AddCommand(installValidateCmd)
	installCmd.AddCommand(installDetectCmd)
	installCmd.AddCommand(installPrepareCmd)

	installCmd.PersistentFlags().BoolVar(&saveStatus, "save", false, "write the resulting status back to the file")

	flags := installPrepareCmd.Flags()
	flags.BoolVar(&prepareKeep, "keep", false, "keep fetched and uploaded boot media")
	flags.BoolVar(&prepareXML, "xml", false, "print the install domain XML instead of the resource")
	flags.BoolVar(&prepareDefine, "define", false, "define the install domain in libvirt (implies --keep)")
}

var installValidateCmd = &cobra.Command{
	Use:   "validate <installation.yaml>",
	Short: "Validate an install location",
	Long: `Check that the install location is usable and report its media type
and the device the guest boots from.

Network locations are checked for an installable tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInstallation(cmd, args[0], func(ctx context.Context, run *installRun) error {
			s, err := run.runner.Validate(ctx, run.inst)
			if err != nil {
				return err
			}
			s.Cleanup(ctx)
			return nil
		})
	},
}

var installDetectCmd = &cobra.Command{
	Use:   "detect <installation.yaml>",
	Short: "Detect the distribution on install media",
	Long: `Validate the install location and identify the distribution on it.

Detection is best effort: media that cannot be identified is reported with
an unknown DistroDetected condition, not as an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInstallation(cmd, args[0], func(ctx context.Context, run *installRun) error {
			s, err := run.runner.Validate(ctx, run.inst)
			if err != nil {
				return err
			}
			defer s.Cleanup(ctx)

			run.runner.Detect(ctx, run.inst, s)
			return nil
		})
	},
}

var installPrepareCmd = &cobra.Command{
	Use:   "prepare <installation.yaml>",
	Short: "Fetch boot media for an installation",
	Long: `Validate, detect and fetch what the guest needs to boot its installer:
a boot ISO, or a kernel and initrd uploaded to the boot-scratch pool when
the hypervisor cannot read them in place.

Fetched files and uploaded volumes are removed when the command exits
unless --keep or --define is given.

Example:
  virtinst install prepare fedora.yaml --define`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keep := prepareKeep || prepareDefine

		return withInstallation(cmd, args[0], func(ctx context.Context, run *installRun) (err error) {
			meter := fetch.NewTextMeter(os.Stderr)

			var s install.Session
			if prepareDefine {
				s, err = run.runner.Install(ctx, run.inst, meter, run.client.Libvirt())
			} else {
				s, err = run.runner.Run(ctx, run.inst, meter)
			}
			if err != nil {
				return err
			}
			defer func() {
				if err != nil || !keep {
					s.Cleanup(ctx)
				}
			}()

			if prepareDefine {
				fmt.Fprintf(os.Stderr, "✓ Install domain %s defined\n", run.inst.Name)
			}

			if prepareXML {
				xml, err := install.DomainXML(run.inst)
				if err != nil {
					return err
				}
				fmt.Println(xml)
				run.quiet = true
			}
			return nil
		})
	},
}

// installRun is the state shared by the install subcommands.
type installRun struct {
	inst   *v1alpha1.Installation
	client *libvirt.Client
	runner *install.Runner

	// quiet suppresses printing the resource.
	quiet bool
}

// withInstallation loads the file at path, connects to its hypervisor and
// calls fn. The resource is printed afterwards whatever fn returned.
func withInstallation(cmd *cobra.Command, path string, fn func(ctx context.Context, run *installRun) error) error {
	ctx := cmd.Context()

	inst, err := loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load installation: %w", err)
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}

	// An explicit --connect wins over the URI in the file.
	uri := inst.GetConnectionURI()
	if cmd.Flags().Changed(config.KeyConnect) {
		uri = cfg.Connect
	}

	client, err := connect(ctx, uri)
	if err != nil {
		return err
	}
	defer closeClient(client)

	db, err := osdb.Default()
	if err != nil {
		return fmt.Errorf("failed to load OS database: %w", err)
	}

	scratchDir, err := installer.ResolveScratchDir(cfg.ScratchDir, client.IsRemote())
	if err != nil {
		return err
	}

	run := &installRun{
		inst:   inst,
		client: client,
		runner: install.NewRunner(sessionFactory(client, db, scratchDir), logging.Component(logger, "install")),
	}

	runErr := fn(ctx, run)

	if saveStatus {
		if err := loader.SaveToFile(inst, path); err != nil {
			return fmt.Errorf("failed to save installation: %w", err)
		}
	}

	if !run.quiet {
		out, err := formatter.FormatInstallation(inst)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Print(out)
	}

	return runErr
}

// sessionFactory opens installers against client.
func sessionFactory(client *libvirt.Client, db *osdb.DB, scratchDir string) install.SessionFactory {
	uploader := storage.NewManager(client.Libvirt(), logging.Component(logger, "storage"))

	return func(spec v1alpha1.InstallationSpec) (install.Session, error) {
		i, err := installer.New(installer.Options{
			Location:         spec.Location,
			CDROM:            spec.CDROM,
			LiveCD:           spec.LiveCD,
			InitrdInjections: spec.InitrdInjections,
			ExtraArgs:        spec.ExtraArgs,
			Remote:           client.IsRemote(),
			ScratchDir:       scratchDir,
			Logger:           logging.Component(logger, "installer"),
			OSDB:             db,
			Uploader:         uploader,
		})
		if err != nil {
			return nil, err
		}
		return i, nil
	}
}
