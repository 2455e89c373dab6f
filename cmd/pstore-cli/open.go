package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbas1/pstore/internal/kvstore"
)

func openCmd() *cobra.Command {
	var lruSegments int
	cmd := &cobra.Command{
		Use:   "open",
		Short: "open (creating if necessary) a pstore file and report its head revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			store, err := kvstore.Open(path, lruSegments)
			if err != nil {
				return fmt.Errorf("open %q: %w", path, err)
			}
			defer func() { _ = store.Close() }()

			head, err := store.Head()
			if err != nil {
				return fmt.Errorf("head revision: %w", err)
			}
			fmt.Printf("opened %q: generation %d\n", path, head.Generation())
			return nil
		},
	}
	cmd.Flags().IntVar(&lruSegments, "lru-segments", 256, "resident mmap'd segment cap")
	return cmd
}
