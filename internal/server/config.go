package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	RedisAddr    string `hcl:"redis_addr,optional"`
	DatabasePath string `hcl:"database_path,optional"`
	LobbyQueue   string `hcl:"lobby_queue,optional"`
	LogLevel     string `hcl:"log_level,optional"`
	RoomSize     int    `hcl:"room_size,optional"`
}

// GameSettings configures the Hold'em game mode
type GameSettings struct {
	SmallBlind     int `hcl:"small_blind,optional"`
	BigBlind       int `hcl:"big_blind,optional"`
	BetTimeoutSecs int `hcl:"bet_timeout,optional"`
	PacingMillis   int `hcl:"pacing_ms,optional"`
}

// BetTimeout returns the bet timeout as a duration
func (g GameSettings) BetTimeout() time.Duration {
	return time.Duration(g.BetTimeoutSecs) * time.Second
}

// Pacing returns the inter-step pacing as a duration
func (g GameSettings) Pacing() time.Duration {
	return time.Duration(g.PacingMillis) * time.Millisecond
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			RedisAddr:    "localhost:6379",
			DatabasePath: "pokerd.db",
			LobbyQueue:   "texas-holdem-poker:lobby",
			LogLevel:     "info",
			RoomSize:     9,
		},
		Game: GameSettings{
			SmallBlind:     5,
			BigBlind:       10,
			BetTimeoutSecs: 300,
			PacingMillis:   1000,
		},
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if config.Server.RedisAddr == "" {
		config.Server.RedisAddr = defaults.Server.RedisAddr
	}
	if config.Server.DatabasePath == "" {
		config.Server.DatabasePath = defaults.Server.DatabasePath
	}
	if config.Server.LobbyQueue == "" {
		config.Server.LobbyQueue = defaults.Server.LobbyQueue
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.RoomSize == 0 {
		config.Server.RoomSize = defaults.Server.RoomSize
	}
	if config.Game.SmallBlind == 0 {
		config.Game.SmallBlind = defaults.Game.SmallBlind
	}
	if config.Game.BigBlind == 0 {
		config.Game.BigBlind = defaults.Game.BigBlind
	}
	if config.Game.BetTimeoutSecs == 0 {
		config.Game.BetTimeoutSecs = defaults.Game.BetTimeoutSecs
	}
	if config.Game.PacingMillis == 0 {
		config.Game.PacingMillis = defaults.Game.PacingMillis
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.RoomSize < 2 || c.Server.RoomSize > 10 {
		return fmt.Errorf("room size must be between 2 and 10, got %d", c.Server.RoomSize)
	}
	if c.Server.LobbyQueue == "" {
		return fmt.Errorf("lobby queue name must not be empty")
	}
	if c.Game.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive, got %d", c.Game.SmallBlind)
	}
	if c.Game.BigBlind <= c.Game.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind, got %d", c.Game.BigBlind)
	}
	if c.Game.BetTimeoutSecs <= 0 {
		return fmt.Errorf("bet timeout must be positive, got %d", c.Game.BetTimeoutSecs)
	}
	return nil
}
