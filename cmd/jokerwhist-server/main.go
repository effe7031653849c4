package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"jokerwhist/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"jokerwhist-server.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Seed     int64  `short:"s" long:"seed" help:"Fixed RNG seed for reproducible games (overrides config)"`
	Monitor  bool   `short:"m" long:"monitor" help:"Print a styled play-by-play of every session to stdout"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Load configuration
	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Seed != 0 {
		cfg.Game.Seed = CLI.Seed
	}
	if CLI.Monitor {
		cfg.Game.Monitor = true
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	// Setup logging
	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting Joker Whist Server",
		"addr", cfg.GetServerAddress(),
		"gracePeriod", cfg.GracePeriod(),
		"botPersonalities", len(cfg.Bots))

	recorder := server.NewLogResultRecorder(logger)
	gameService := server.NewGameService(cfg, recorder, quartz.NewReal(), logger, cfg.Game.Seed)

	wsServer := server.NewServer(cfg.GetServerAddress(), logger)
	wsServer.SetGameService(gameService)
	gameService.SetServer(wsServer)

	// Handle graceful shutdown
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, runCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return wsServer.Start()
	})
	g.Go(func() error {
		<-runCtx.Done()
		logger.Info("Shutting down server...")
		gameService.Shutdown()
		return wsServer.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}
