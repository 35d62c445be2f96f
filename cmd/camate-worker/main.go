package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"camate/internal/amqp"
	"camate/internal/backend"
	"camate/internal/cli"
	"camate/internal/log"
	"camate/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting camate-worker")

	// SQLite repository to claim queued runs
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Blob store for workbooks and run artifacts
	blobs := cli.InitBlobStore(logger, cfg.BlobRoot, cfg.DownloadURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Filing register backend (memory or Google Sheets)
	registerCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid register configuration", "error", err)
		os.Exit(1)
	}
	register, err := backend.NewFactory(logger.Logger).CreateRegister(ctx, registerCfg)
	if err != nil {
		logger.Error("Failed to initialize filing register", "error", err)
		os.Exit(1)
	}
	if register.Cleanup != nil {
		defer register.Cleanup()
	}

	// AMQP client for consuming run messages (optional)
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, falling back to polling only", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	verifyWorker := worker.NewVerifyWorker(repo, blobs, register.Register, cfg.HomeStateCode(), cfg.RunBatchSize)

	// On startup, process runs that were queued while the worker was down
	logger.Info("Performing startup run check...")
	if err := verifyWorker.ProcessPendingRuns(ctx); err != nil {
		logger.Error("Failed startup run check", "error", err)
		// Don't exit - continue with normal operation
	}

	g, ctx := errgroup.WithContext(ctx)

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeRuns(ctx, func(msg *amqp.RunMessage) error {
				return verifyWorker.HandleRunMessage(ctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Run consumption failed", "error", err)
				return err
			}
			return nil
		})
	} else {
		logger.Info("Skipping AMQP consumption - polling only")
	}

	// Periodic poll backs up the queue for missed or unpublished runs
	g.Go(func() error {
		return verifyWorker.Poll(ctx, cfg.RunInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
