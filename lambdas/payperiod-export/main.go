package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"

	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/config"
	"sitepunch.app/sitepunch/core"
	"sitepunch.app/sitepunch/infrastructure/communication"
	"sitepunch.app/sitepunch/infrastructure/filesystem"
	"sitepunch.app/sitepunch/lambdas/payperiod-export/helper"
	"sitepunch.app/sitepunch/store"
)

func HandleRequest(ctx context.Context, event helper.ExportEvent) ([]helper.Result, error) {
	eventJson, _ := json.Marshal(event)
	fmt.Printf("[INFO] Event: %s\n", string(eventJson))

	cfg, err := config.Load(ctx, "")
	if err != nil {
		return nil, err
	}
	logger, err := core.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer backend.Close(context.Background())

	bucket, err := filesystem.OpenBucket(ctx, cfg.Export.Bucket)
	if err != nil {
		return nil, err
	}
	mailer, err := communication.OpenMailer(ctx)
	if err != nil {
		return nil, err
	}

	var notify communication.Notifier = communication.Discard{}
	if cfg.Notify.SlackToken != "" {
		notify = communication.NewSlack(cfg.Notify.SlackToken, communication.SlackOption{
			InfoChannelID:  cfg.Notify.SlackInfoChannel,
			ErrorChannelID: cfg.Notify.SlackErrorChannel,
		})
	}

	job := &helper.Job{
		Companies:  backend,
		Exports:    admin.NewService(backend, logger),
		Files:      bucket,
		Mail:       mailer,
		Notify:     notify,
		Logger:     logger,
		EmailFrom:  cfg.Notify.EmailFrom,
		WindowDays: cfg.PayPeriod.WindowDays,
		Now:        time.Now,
	}
	results, err := job.Run(ctx, event)
	fmt.Printf("[INFO] Exported %d companies\n", len(results))
	return results, err
}

func main() {
	if !config.InLambda() {
		// local run: dry-run every company and print the plan
		results, err := HandleRequest(context.Background(), helper.ExportEvent{DryRun: true})
		if err != nil {
			log.Fatalf("export failed: %v", err)
		}
		for _, r := range results {
			fmt.Printf("  %s: %d entries -> %s\n", r.Company, r.Entries, r.Key)
		}
		return
	}
	lambda.Start(HandleRequest)
}
