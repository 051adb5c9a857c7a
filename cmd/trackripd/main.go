package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"trackrip/internal/config"
	"trackrip/internal/daemon"
	"trackrip/internal/logging"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("create daemon", logging.Args(logging.Error(err))...)
		return
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Args(logging.Error(err))...)
		return
	}

	<-ctx.Done()
	d.Stop()
	logger.Info("trackripd shutting down")
}
