package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"p2plend/internal/adapter/publisher"
	"p2plend/internal/adapter/repository/sqlstore"
	"p2plend/internal/config"
	"p2plend/internal/infrastructure/db"
	"p2plend/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	w := publisher.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay := publisher.NewRelay(sqlstore.NewOutboxRepository(gdb), w, 100, log.Named("poller"))
	relay.Run(ctx, cfg.PollInterval)
	return nil
}
