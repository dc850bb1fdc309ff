package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"finance-analytics/internal/adapters/cli"
	"finance-analytics/internal/adapters/repl"
	"finance-analytics/internal/bootstrap"
	"finance-analytics/internal/config"
	"finance-analytics/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Keep stdout for command output; logs go to stderr at warn level unless
	// LOG_LEVEL says otherwise.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger, err := logging.New(cfg.AppEnv, level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer rt.Close()

	if len(os.Args) > 1 {
		if err := cli.Run(ctx, rt.Service, os.Args[1:], os.Stdout); err != nil {
			rt.Close()
			log.Fatal(err)
		}
		return
	}
	if err := repl.Run(ctx, rt.Service, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		logger.Error("repl", zap.Error(err))
	}
}
