package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jbweber/virtinst/internal/logging"
	"github.com/jbweber/virtinst/internal/storage"
)

// Pool management commands
var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Manage the boot scratch pool",
	Long: `Manage the storage pool install media is uploaded into.

When the hypervisor cannot read fetched kernels and initrds in place they
are uploaded as volumes into the boot-scratch pool, a directory pool at
/var/lib/libvirt/boot.`,
}

func init() {
	poolCmd.AddCommand(poolInitCmd)
	poolCmd.AddCommand(poolInfoCmd)
	poolCmd.AddCommand(poolRefreshCmd)
}

// withPoolManager connects and hands fn a storage manager.
func withPoolManager(cmd *cobra.Command, fn func(mgr *storage.Manager) error) error {
	client, err := connect(cmd.Context(), cfg.Connect)
	if err != nil {
		return err
	}
	defer closeClient(client)

	return fn(storage.NewManager(client.Libvirt(), logging.Component(logger, "storage")))
}

func poolName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return storage.ScratchPool
}

var poolInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the boot-scratch pool",
	Long: `Create and start the boot-scratch pool if it does not exist yet.

Prepare creates the pool on demand, this is only needed to set it up ahead
of time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPoolManager(cmd, func(mgr *storage.Manager) error {
			if err := mgr.EnsureScratchPool(cmd.Context()); err != nil {
				return err
			}

			fmt.Printf("✓ Pool %s ready at %s\n", storage.ScratchPool, storage.SystemScratchDir)
			return nil
		})
	},
}

var poolInfoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "Show detailed information about a pool",
	Long: `Display detailed information about a storage pool, boot-scratch by default.

Shows pool name, type, path, state, UUID, and capacity/allocation details.

Example:
  virtinst pool info boot-scratch`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPoolManager(cmd, func(mgr *storage.Manager) error {
			poolInfo, err := mgr.GetPoolInfo(cmd.Context(), poolName(args))
			if err != nil {
				return fmt.Errorf("failed to get pool info: %w", err)
			}

			fmt.Printf("Pool: %s\n", poolInfo.Name)
			fmt.Printf("Type: %s\n", poolInfo.Type)
			fmt.Printf("State: %s\n", poolInfo.State)
			if poolInfo.Path != "" {
				fmt.Printf("Path: %s\n", poolInfo.Path)
			}
			fmt.Printf("UUID: %s\n", poolInfo.UUID)
			fmt.Printf("Capacity: %s (%d bytes)\n", humanize.IBytes(poolInfo.Capacity), poolInfo.Capacity)
			fmt.Printf("Allocated: %s (%d bytes)\n", humanize.IBytes(poolInfo.Allocation), poolInfo.Allocation)
			fmt.Printf("Available: %s (%d bytes)\n", humanize.IBytes(poolInfo.Available), poolInfo.Available)

			usagePercent := 0.0
			if poolInfo.Capacity > 0 {
				usagePercent = (float64(poolInfo.Allocation) / float64(poolInfo.Capacity)) * 100
			}
			fmt.Printf("Usage: %.1f%%\n", usagePercent)

			return nil
		})
	},
}

var poolRefreshCmd = &cobra.Command{
	Use:   "refresh [name]",
	Short: "Refresh a storage pool",
	Long: `Refresh a storage pool, boot-scratch by default, to detect external changes.

Useful after removing leftover install media from the pool directory by hand.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := poolName(args)

		return withPoolManager(cmd, func(mgr *storage.Manager) error {
			if err := mgr.RefreshPool(cmd.Context(), name); err != nil {
				return fmt.Errorf("failed to refresh pool: %w", err)
			}

			fmt.Printf("✓ Pool %s refreshed successfully\n", name)
			return nil
		})
	},
}
