package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fdakit/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the toolkit over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}

		slog.Info("configuration loaded",
			"port", cfg.Server.Port,
			"max_concurrent_runs", cfg.Server.MaxConcurrentRuns,
			"rate_limit_enabled", cfg.Rate.Enabled,
			"require_api_key", cfg.Security.RequireAPIKey,
		)

		server := web.NewServer(kit, cfg)

		done := make(chan struct{})
		go func() {
			defer close(done)
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			slog.Info("shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				slog.Error("shutdown error", "error", err)
			}
		}()

		if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		<-done
		slog.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (default from config)")
}
