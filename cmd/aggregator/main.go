package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fystack/wallet-aggregator/internal/config"
	"github.com/fystack/wallet-aggregator/internal/service"
	"github.com/fystack/wallet-aggregator/pkg/common/logger"
)

var (
	configPath string
	port       int
	debug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aggregator",
		Short: "Multi-chain wallet portfolio and activity aggregator",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP query server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to config file")
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load() // .env is optional

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{Level: level, TimeFormat: time.RFC3339})

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	svc, err := service.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	server := startHTTPServer(port, cfg.Version, svc)

	waitForShutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	logger.Info("Aggregator stopped")
	return nil
}

func waitForShutdown() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")
}
