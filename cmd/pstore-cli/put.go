package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbas1/pstore/internal/kvstore"
)

func putCmd() *cobra.Command {
	var lruSegments int
	cmd := &cobra.Command{
		Use:   "put <key> <value>",
		Short: "insert or assign a key/value pair in a new transaction and commit it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			store, err := kvstore.Open(path, lruSegments)
			if err != nil {
				return fmt.Errorf("open %q: %w", path, err)
			}
			defer func() { _ = store.Close() }()

			tx, err := store.Begin()
			if err != nil {
				return fmt.Errorf("begin transaction: %w", err)
			}

			key, value := args[0], []byte(args[1])
			if _, _, err := tx.Primary().InsertOrAssign(tx, key, value); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert %q: %w", key, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("commit: %w", err)
			}

			head, err := store.Head()
			if err != nil {
				return fmt.Errorf("head revision: %w", err)
			}
			fmt.Printf("committed %q -> generation %d\n", key, head.Generation())
			return nil
		},
	}
	cmd.Flags().IntVar(&lruSegments, "lru-segments", 256, "resident mmap'd segment cap")
	return cmd
}
