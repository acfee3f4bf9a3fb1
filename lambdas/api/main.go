package main

import (
	"context"
	"fmt"
	"net/http"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"sitepunch.app/sitepunch/config"
	"sitepunch.app/sitepunch/core"
	"sitepunch.app/sitepunch/lambdas/api/helper"
	"sitepunch.app/sitepunch/store"
	"sitepunch.app/sitepunch/web"
)

func setup(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Load(ctx, "")
	if err != nil {
		return nil, err
	}
	logger, err := core.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	router, err := web.Build(backend, cfg, logger, false)
	if err != nil {
		backend.Close(ctx)
		return nil, err
	}
	logger.Info("api function ready", zap.String("driver", cfg.Store.Driver))
	return router, nil
}

func main() {
	// The router and its store connection are built on the first invocation
	// and reused while the execution environment stays warm.
	lambda.Start(helper.NewLazy(setup).Handle)
}
