package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitepunch.app/sitepunch/config"
	"sitepunch.app/sitepunch/core"
	"sitepunch.app/sitepunch/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "sitepunch",
	Short:         "SitePunch time tracking server and tools",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")
}

// environment is what the server-side commands share.
type environment struct {
	cfg     *config.Config
	logger  *zap.Logger
	backend store.Backend
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Context(), configPath)
}

func openEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return nil, err
	}
	logger, err := core.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return &environment{cfg: cfg, logger: logger, backend: backend}, nil
}

func (e *environment) Close(ctx context.Context) {
	if err := e.backend.Close(ctx); err != nil {
		e.logger.Warn("close store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
