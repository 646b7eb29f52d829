package root

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/docker/itemd/pkg/cli"
	"github.com/docker/itemd/pkg/server"
	"github.com/docker/itemd/pkg/service"
	"github.com/docker/itemd/pkg/store"
	"github.com/docker/itemd/pkg/userconfig"
	"github.com/docker/itemd/pkg/watch"
)

type serveFlags struct {
	listenAddr      string
	storePath       string
	watch           bool
	shutdownTimeout time.Duration
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the item HTTP server",
		Long: `Start the HTTP server that exposes the item collection.

Routes are served both at the root and under /api/v1:
  GET    /item              list items
  GET    /item/:id          get one item
  POST   /item              create an item
  PUT    /item/:id          update an item
  PATCH  /item/:id/toggle   set the completion flag
  DELETE /item/:id          delete an item`,
		Example: `  itemd serve
  itemd serve --listen unix:///tmp/itemd.sock --store ./items.json
  itemd serve --store :memory:`,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE:    flags.runServeCommand,
	}

	cmd.Flags().StringVarP(&flags.listenAddr, "listen", "l", "", "Address to listen on: host:port, unix://path, npipe://path or fd://N (default from config, else :8080)")
	cmd.Flags().StringVarP(&flags.storePath, "store", "s", "", `Path to the item document, or ":memory:" (default from config, else ~/.itemd/items.json)`)
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "Log every rewrite of the item document, including the server's own saves")
	cmd.Flags().DurationVar(&flags.shutdownTimeout, "shutdown-timeout", 0, "How long to wait for in-flight requests on shutdown (default from config, else 5s)")

	return cmd
}

func (f *serveFlags) runServeCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cli.NewPrinter(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings, err := f.resolve(cmd.Flags().Changed, cfg)
	if err != nil {
		return err
	}

	ln, err := server.Listen(ctx, settings.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", settings.listenAddr, err)
	}

	out.Println("Listening on " + ln.Addr().String())

	slog.Debug("Starting server", "store", settings.storePath, "addr", ln.Addr().String())

	storePath := settings.storePath
	srv := server.New(service.New(store.Open(storePath)), server.WithShutdownTimeout(settings.shutdownTimeout))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx, ln)
	})

	if settings.watch && storePath != store.MemoryLocation {
		events, err := watch.New(storePath).Watch(ctx)
		if err != nil {
			slog.Warn("Failed to watch item store", "path", storePath, "error", err)
		} else {
			g.Go(func() error {
				logStoreChanges(ctx, events)
				return nil
			})
		}
	}

	return g.Wait()
}

// resolve layers command-line flags over the user config. changed reports
// whether a flag was set explicitly.
func (f *serveFlags) resolve(changed func(string) bool, cfg *userconfig.Config) (serveFlags, error) {
	settings := serveFlags{
		listenAddr:      cmp.Or(f.listenAddr, cfg.GetListen()),
		storePath:       cmp.Or(f.storePath, cfg.GetStore()),
		watch:           cfg.Watch,
		shutdownTimeout: f.shutdownTimeout,
	}
	if changed("watch") {
		settings.watch = f.watch
	}
	if settings.shutdownTimeout <= 0 {
		timeout, err := cfg.GetShutdownTimeout()
		if err != nil {
			return serveFlags{}, err
		}
		settings.shutdownTimeout = timeout
	}
	return settings, nil
}

// logStoreChanges logs every rewrite of the store document, whether it
// came from this server or from another process.
func logStoreChanges(ctx context.Context, events <-chan watch.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Err != nil {
				slog.Warn("Item store changed", "summary", watch.Summary(ev))
			} else {
				slog.Info("Item store changed", "summary", watch.Summary(ev))
			}
		}
	}
}
