// Command pstore-cli is the out-of-scope driver spec.md's §6 CLI section
// describes: a thin cobra wrapper over internal/kvstore's open/
// transaction/commit cycle, plus a "serve" subcommand that launches the
// status server in-process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "pstore-cli",
		Short: "inspect and mutate a pstore file",
	}
	root.PersistentFlags().String("db", "pstore.db", "path to the pstore file")

	root.AddCommand(openCmd())
	root.AddCommand(putCmd())
	root.AddCommand(getCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
