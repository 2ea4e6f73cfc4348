package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jkamya/pesaflow/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			store, err := newAlertStore(ctx, db)
			if err != nil {
				return err
			}

			// Warm the snapshot so the first dashboard load has data.
			if err := store.RefreshAnalysis(ctx); err != nil {
				slog.Warn("initial analysis refresh failed", "error", err)
			}

			e := server.New(store, slog.Default())
			addr := viper.GetString("server.addr")
			if addr == "" {
				addr = ":8080"
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("serving dashboard API", "addr", addr)
				errCh <- e.Start(addr)
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return e.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
