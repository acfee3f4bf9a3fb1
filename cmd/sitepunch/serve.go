package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitepunch.app/sitepunch/web"
)

const shutdownTimeout = 15 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("migrate", false, "create tables and indexes before serving")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := openEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close(context.Background())

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := env.backend.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	router, err := web.Build(env.backend, env.cfg, env.logger, true)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", env.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		env.logger.Info("listening", zap.String("addr", srv.Addr), zap.String("driver", env.cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	env.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
