package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheikh-saqib/account-ledger-system/internal/config"
	"github.com/sheikh-saqib/account-ledger-system/internal/directory"
	"github.com/sheikh-saqib/account-ledger-system/internal/events/kafka"
	"github.com/sheikh-saqib/account-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/account-ledger-system/internal/storage/memory"
	"github.com/sheikh-saqib/account-ledger-system/internal/storage/postgres"
	"github.com/sheikh-saqib/account-ledger-system/internal/storage/sqlite"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
	}

	dir := directory.New(store)
	engine := ledger.NewEngine(store, dir, publisher, log)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      newMux(engine, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.ListenAddr, "storage", cfg.StorageDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func openStore(cfg config.Config) (interfaces.AccountStore, error) {
	switch cfg.StorageDriver {
	case "memory":
		return memory.NewStore(), nil
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath)
	case "postgres":
		return postgres.Open(cfg.PostgresDSN)
	default:
		return nil, errors.New("unknown storage driver: " + cfg.StorageDriver)
	}
}
