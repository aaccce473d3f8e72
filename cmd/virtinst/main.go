package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jbweber/virtinst/internal/config"
	"github.com/jbweber/virtinst/internal/libvirt"
	"github.com/jbweber/virtinst/internal/logging"
	"github.com/jbweber/virtinst/internal/output"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	v      = config.New()
	cfg    *config.Config
	logger = zerolog.Nop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "virtinst",
	Short: "Virtinst - libvirt install media tool",
	Long: `Virtinst prepares install media for libvirt guests.

It takes an install location (a local ISO, optical device, directory tree
or a remote http/ftp tree), works out what kind of media it is, detects the
distribution on it and fetches what the guest needs to boot its installer.

It can also show the virtual networks defined on a hypervisor.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(os.Stderr, cfg.Debug)
		logger.Debug().Str("config", v.ConfigFileUsed()).Str("connect", cfg.Connect).Msg("configuration loaded")
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyConnect, "qemu:///system", "libvirt connection URI")
	flags.Bool(config.KeyDebug, false, "enable debug logging")
	flags.StringP(config.KeyOutput, "o", "table", "output format (table, yaml, json)")
	flags.Bool(config.KeyNoHeaders, false, "omit table headers")

	for _, key := range []string{config.KeyConnect, config.KeyDebug, config.KeyOutput, config.KeyNoHeaders} {
		bindFlag(v, key, rootCmd)
	}

	rootCmd.AddCommand(testConnCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(netCmd)
	rootCmd.AddCommand(poolCmd)
}

func bindFlag(v *viper.Viper, key string, cmd *cobra.Command) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(key)); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", key, err))
	}
}

// connect opens a libvirt connection using the configured timeout.
func connect(ctx context.Context, uri string) (*libvirt.Client, error) {
	logger.Debug().Str("uri", uri).Dur("timeout", cfg.ConnectTimeout).Msg("connecting to libvirt")
	client, err := libvirt.ConnectWithContext(ctx, uri, cfg.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	return client, nil
}

func closeClient(client *libvirt.Client) {
	if err := client.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close libvirt connection")
	}
}

func newFormatter() (output.Formatter, error) {
	return output.NewFormatter(output.Options{
		Format:    output.Format(cfg.Output),
		NoHeaders: cfg.NoHeaders,
	})
}

var testConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test libvirt connection",
	Long:  `Test connectivity to the libvirt daemon and display version information.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Testing libvirt connection...")

		client, err := connect(cmd.Context(), cfg.Connect)
		if err != nil {
			return err
		}
		defer closeClient(client)

		fmt.Println("✓ Connected to libvirt daemon")

		if err := client.Ping(); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}

		version, err := client.Libvirt().ConnectGetLibVersion()
		if err != nil {
			return fmt.Errorf("failed to get libvirt version: %w", err)
		}

		// libvirt encodes 8.6.0 as 8006000
		major := version / 1000000
		minor := (version % 1000000) / 1000
		patch := version % 1000

		fmt.Printf("✓ Libvirt version: %d.%d.%d\n", major, minor, patch)

		hostname, err := client.Libvirt().ConnectGetHostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}

		fmt.Printf("✓ Hypervisor hostname: %s\n", hostname)
		fmt.Printf("✓ Connection URI: %s\n", client.URI())
		if client.IsRemote() {
			fmt.Println("✓ Remote connection, install media will be uploaded")
		}

		fmt.Println("\nConnection test successful!")
		return nil
	},
}
