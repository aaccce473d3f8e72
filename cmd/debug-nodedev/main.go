// Command debug-nodedev shows how hostdev strings resolve to libvirt node
// devices.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtinst/internal/libvirt"
	"github.com/jbweber/virtinst/internal/logging"
	"github.com/jbweber/virtinst/internal/nodedev"
	"github.com/jbweber/virtinst/internal/probe"
)

var connectURI string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "debug-nodedev <hostdev>...",
	Short: "Resolve hostdev strings to node devices",
	Long: `Look up each hostdev string the way --hostdev does and print the node
device it maps to.

Accepted forms are a node device name (pci_0000_00_19_0), a USB
vendor:product pair (0x1234:0x5678), a USB bus.device pair (003.004) and a
PCI address ([domain:]bus:slot.function).

A hostdev that does not resolve is reported and the rest are still probed.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New(os.Stderr, true)

		logger.Debug().Str("uri", connectURI).Msg("connecting to libvirt")
		client, err := libvirt.ConnectWithContext(cmd.Context(), connectURI, 0)
		if err != nil {
			return fmt.Errorf("failed to connect to libvirt: %w", err)
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn().Err(closeErr).Msg("failed to close libvirt connection")
			}
		}()

		resolver := nodedev.NewResolver(client, logging.Component(logger, "nodedev"))
		results, err := probe.Run(os.Stdout, resolver, args)
		if err != nil {
			return err
		}

		failed := 0
		for _, r := range results {
			if !r.OK() {
				failed++
			}
		}
		logger.Debug().Int("probed", len(results)).Int("failed", failed).Msg("probe finished")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&connectURI, "connect", "c", libvirt.DefaultURI, "libvirt connection URI")
}
