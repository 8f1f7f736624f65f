// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hashrand-project/hashrand/internal/config"
	"github.com/hashrand-project/hashrand/storage"
	"github.com/hashrand-project/hashrand/storage/memory"
	"github.com/hashrand-project/hashrand/storage/postgres"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one pass of expired-row cleanup against configured storage",
	Long: `sweep connects to the storage backend named by STORAGE_DRIVER/STORAGE_DSN
and deletes expired refresh records, magic links, and shared secrets. It
duplicates the server's own background sweep for operators who want an
on-demand or cron-triggered pass instead.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	store, err := openSweepStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	group, gctx := errgroup.WithContext(ctx)

	var refreshCount, magicCount, secretCount int
	group.Go(func() error {
		var err error
		refreshCount, err = store.RefreshStore().DeleteExpired(gctx)
		if err != nil {
			return fmt.Errorf("sweep refresh records: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		magicCount, err = store.MagicLinkStore().DeleteExpired(gctx)
		if err != nil {
			return fmt.Errorf("sweep magic links: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		secretCount, err = store.SecretStore().DeleteExpired(gctx)
		if err != nil {
			return fmt.Errorf("sweep shared secrets: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	fmt.Printf("swept %d refresh records, %d magic links, %d shared secrets\n", refreshCount, magicCount, secretCount)
	return nil
}

func openSweepStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.NewStore(), nil
	case "postgres":
		return postgres.NewStoreFromDSN(context.Background(), cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
