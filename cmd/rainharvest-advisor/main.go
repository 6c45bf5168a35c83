package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"rainharvest-advisor/internal/config"
	"rainharvest-advisor/internal/logger"
	"rainharvest-advisor/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "rainharvest-advisor")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	svc, err := service.NewAdvisorService(cfg, log)
	if err != nil {
		log.Fatal("Failed to assemble service", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server exited", zap.Error(err))
		}
	}

	if err := svc.Stop(); err != nil {
		log.Warn("Shutdown incomplete", zap.Error(err))
	}
}
