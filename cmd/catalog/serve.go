package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpserver "github.com/Clark-Hu/movie-catalog/internal/http"
	"github.com/Clark-Hu/movie-catalog/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Serve exposes the catalog as a JSON API. When watching is enabled the
catalog is reloaded whenever another program rewrites the CSV file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	server := httpserver.New(a.cfg, a.store, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if a.cfg.WatchFile {
		debounce := time.Duration(a.cfg.WatchDebounceMS) * time.Millisecond
		w, err := watch.New(a.store, debounce, a.logger)
		if err != nil {
			a.logger.Warn("serve: file watching disabled", zap.Error(err))
		} else {
			g.Go(func() error { return w.Run(ctx) })
		}
	}

	a.logger.Info("serve: catalog ready",
		zap.String("file", a.store.Path()),
		zap.Int("movies", a.store.Len()),
		zap.Bool("watch", a.cfg.WatchFile),
	)
	return g.Wait()
}
