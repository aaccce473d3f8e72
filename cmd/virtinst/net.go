package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtinst/internal/logging"
	"github.com/jbweber/virtinst/internal/netlist"
	"github.com/jbweber/virtinst/internal/output"
)

var netListPlain bool

// Network commands
var netCmd = &cobra.Command{
	Use:   "net",
	Short: "Inspect virtual networks",
	Long: `Inspect the virtual networks defined on the hypervisor.

Networks are only ever read, nothing here starts, stops or edits one.`,
}

func init() {
	netCmd.AddCommand(netListCmd)

	netListCmd.Flags().BoolVar(&netListPlain, "plain", false, "print a table instead of the interactive screen")
}

var netListCmd = &cobra.Command{
	Use:   "list",
	Short: "List virtual networks",
	Long: `List every virtual network with its state and IPv4 configuration.

With table output an interactive screen is shown: pick a network and press
enter for its details. Use --plain, or -o yaml|json, to print instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connect(cmd.Context(), cfg.Connect)
		if err != nil {
			return err
		}
		defer closeClient(client)

		networks, err := netlist.Load(client, logging.Component(logger, "netlist"))
		if err != nil {
			return fmt.Errorf("failed to list networks: %w", err)
		}

		if output.Format(cfg.Output) == output.FormatTable && !netListPlain {
			return netlist.Run(cmd.Context(), networks, os.Stdin, os.Stdout)
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}

		out, err := formatter.FormatNetworkList(networks)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(out)
		return nil
	},
}
