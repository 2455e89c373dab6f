package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbas1/pstore/internal/kvstore"
	"github.com/orbas1/pstore/internal/store"
)

func getCmd() *cobra.Command {
	var lruSegments int
	var generation int64
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "look up a key in the head revision, or a named generation with --generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			db, err := kvstore.Open(path, lruSegments)
			if err != nil {
				return fmt.Errorf("open %q: %w", path, err)
			}
			defer func() { _ = db.Close() }()

			var rev *kvstore.Revision
			if generation >= 0 {
				rev, err = db.Sync(uint64(generation))
			} else {
				rev, err = db.Head()
			}
			if err != nil {
				if errors.Is(err, store.ErrUnknownRevision) {
					return fmt.Errorf("no such generation %d", generation)
				}
				return fmt.Errorf("resolve revision: %w", err)
			}

			key := args[0]
			value, ok, err := rev.Find(key)
			if err != nil {
				return fmt.Errorf("find %q: %w", key, err)
			}
			if !ok {
				return fmt.Errorf("key %q not found in generation %d", key, rev.Generation())
			}
			fmt.Printf("%s\n", value)
			return nil
		},
	}
	cmd.Flags().IntVar(&lruSegments, "lru-segments", 256, "resident mmap'd segment cap")
	cmd.Flags().Int64Var(&generation, "generation", -1, "look up this generation instead of the head revision")
	return cmd
}
