package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arktecher/Micro-sub000/internal/api"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the venue dashboard and buyer account favorites over HTTP",
		Long: `Start the HTTP surfaces. Favorites changed by other processes (a
workflow in another terminal, for instance) are picked up by polling the
persisted revision every favorites.poll_interval.`,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("access-log", true, "log every request")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	accessLog, _ := cmd.Flags().GetBool("access-log")

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	store := e.favoritesStore()
	srv, err := api.New(ctx, api.Config{
		Store:     store,
		Catalog:   e.catalog,
		Spaces:    e.storage,
		AccessLog: accessLog,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	watcher, err := e.startWatcher(ctx)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(e.cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP surfaces")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
