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
	"github.com/redis/go-redis/v9"

	"github.com/lox/pokerd/internal/broker"
	"github.com/lox/pokerd/internal/game"
	"github.com/lox/pokerd/internal/gameid"
	"github.com/lox/pokerd/internal/server"
	"github.com/lox/pokerd/internal/store"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"pokerd.hcl" help:"Path to HCL configuration file"`
	Redis    string `short:"r" long:"redis" help:"Redis address (overrides config)"`
	Database string `short:"d" long:"database" help:"SQLite database path (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Redis != "" {
		cfg.Server.RedisAddr = CLI.Redis
	}
	if CLI.Database != "" {
		cfg.Server.DatabasePath = CLI.Database
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

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

	repo, err := store.Open(cfg.Server.DatabasePath, cfg.Game.BigBlind, logger)
	if err != nil {
		logger.Error("Failed to open profile store", "error", err)
		kctx.Exit(1)
	}
	defer repo.Close()

	client := redis.NewClient(&redis.Options{Addr: cfg.Server.RedisAddr})
	defer client.Close()
	redisBroker := broker.NewRedisBroker(client)

	factory := game.NewHoldemFactory(cfg.Game.SmallBlind, cfg.Game.BigBlind, repo, logger)
	factory.BetTimeout = cfg.Game.BetTimeout()
	factory.Pacing = cfg.Game.Pacing()

	serverID := gameid.NewServer()
	lobby := server.NewLobby(serverID, cfg.Server.LobbyQueue, redisBroker, repo,
		[]game.Factory{factory}, cfg.Server.RoomSize, quartz.NewReal(), logger)

	logger.Info("Starting poker server",
		"server", serverID,
		"redis", cfg.Server.RedisAddr,
		"database", cfg.Server.DatabasePath,
		"lobby", cfg.Server.LobbyQueue,
		"stakes", fmt.Sprintf("%d/%d", cfg.Game.SmallBlind, cfg.Game.BigBlind))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("Shutting down server...")
		cancel()
	}()

	if err := lobby.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Lobby failed", "error", err)
		kctx.Exit(1)
	}
}
