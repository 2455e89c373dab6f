package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbas1/pstore/internal/kvstore"
)

func syncCmd() *cobra.Command {
	var lruSegments int
	cmd := &cobra.Command{
		Use:   "sync <generation>",
		Short: "walk the revision chain to a named generation and report its size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			store, err := kvstore.Open(path, lruSegments)
			if err != nil {
				return fmt.Errorf("open %q: %w", path, err)
			}
			defer func() { _ = store.Close() }()

			var generation uint64
			if _, err := fmt.Sscanf(args[0], "%d", &generation); err != nil {
				return fmt.Errorf("invalid generation %q: %w", args[0], err)
			}

			rev, err := store.Sync(generation)
			if err != nil {
				return fmt.Errorf("sync %d: %w", generation, err)
			}
			fmt.Printf("generation %d: %d bytes of user data\n", rev.Generation(), rev.Size())
			return nil
		},
	}
	cmd.Flags().IntVar(&lruSegments, "lru-segments", 256, "resident mmap'd segment cap")
	return cmd
}
