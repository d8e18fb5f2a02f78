package main

import (
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/lox/pokerd/internal/bridge"
	"github.com/lox/pokerd/internal/broker"
)

var CLI struct {
	Addr       string `short:"a" long:"addr" default:":8080" help:"Address to serve websocket connections on"`
	Redis      string `short:"r" long:"redis" default:"localhost:6379" help:"Redis address"`
	LobbyQueue string `long:"lobby-queue" default:"texas-holdem-poker:lobby" help:"Lobby queue name"`
	LogLevel   string `short:"l" long:"log-level" default:"info" help:"Log level"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logger := log.New(os.Stderr)
	switch CLI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	client := redis.NewClient(&redis.Options{Addr: CLI.Redis})
	defer client.Close()

	b := bridge.New(broker.NewRedisBroker(client), CLI.LobbyQueue, logger)

	logger.Info("Starting websocket bridge", "addr", CLI.Addr, "redis", CLI.Redis, "lobby", CLI.LobbyQueue)

	mux := http.NewServeMux()
	mux.Handle("/", b)
	if err := http.ListenAndServe(CLI.Addr, mux); err != nil {
		logger.Error("Bridge failed", "error", err)
		kctx.Exit(1)
	}
}
