// Command pstore-server runs pstore's status HTTP/WebSocket server: a
// single-threaded, select-driven listener serving the embedded dashboard,
// the "/cmd/*" command registry and any number of publish/subscribe
// channels over WebSocket.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/orbas1/pstore/internal/dispatch"
	"github.com/orbas1/pstore/internal/kvstore"
	"github.com/orbas1/pstore/internal/pubsub"
	"github.com/orbas1/pstore/internal/romfs"
	"github.com/orbas1/pstore/internal/romfs/assets"
	"github.com/orbas1/pstore/internal/ws"
	"github.com/orbas1/pstore/pkg/config"
)

func main() {
	var (
		addr       string
		configPath string
		dbPath     string
	)
	flag.StringVar(&addr, "port", "", "listen address, e.g. :8080 (overrides config)")
	flag.StringVar(&addr, "addr", "", "alias for -port")
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&dbPath, "db", "", "path to the pstore file to open (overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pstore-server: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	log := logrus.WithField("component", "pstore-server")

	if err := run(cfg, log); err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Entry) error {
	store, err := kvstore.Open(cfg.Store.Path, cfg.Store.LRUSegments)
	if err != nil {
		return fmt.Errorf("open store %q: %w", cfg.Store.Path, err)
	}
	defer store.Close()

	assetRoot, err := romfs.Build(assets.FS)
	if err != nil {
		return fmt.Errorf("build embedded filesystem: %w", err)
	}
	fs := romfs.New(assetRoot)

	metrics := dispatch.NewMetrics()
	dispatcher := dispatch.New(fs, metrics)
	dispatcher.RegisterDefaults()

	broker := pubsub.NewBroker()

	server, err := ws.Listen(cfg.Server.Addr, broker, dispatcher.Serve, log)
	if err != nil {
		return fmt.Errorf("listen on %q: %w", cfg.Server.Addr, err)
	}
	log.Infof("listening on %s", server.Addr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Infof("shutting down")
		ws.Quit(server.Status())
	}()

	return server.Run()
}
