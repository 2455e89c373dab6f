package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orbas1/pstore/internal/dispatch"
	"github.com/orbas1/pstore/internal/pubsub"
	"github.com/orbas1/pstore/internal/romfs"
	"github.com/orbas1/pstore/internal/romfs/assets"
	"github.com/orbas1/pstore/internal/ws"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the status HTTP/WebSocket server against the configured pstore file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.WithField("component", "pstore-cli/serve")

			assetRoot, err := romfs.Build(assets.FS)
			if err != nil {
				return fmt.Errorf("build embedded filesystem: %w", err)
			}
			dispatcher := dispatch.New(romfs.New(assetRoot), dispatch.NewMetrics())
			dispatcher.RegisterDefaults()

			server, err := ws.Listen(addr, pubsub.NewBroker(), dispatcher.Serve, log)
			if err != nil {
				return fmt.Errorf("listen on %q: %w", addr, err)
			}
			log.Infof("listening on %s", server.Addr())
			return server.Run()
		},
	}
	cmd.Flags().StringVar(&addr, "port", ":8080", "listen address")
	return cmd
}
