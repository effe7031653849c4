package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"jokerwhist/internal/bot"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
	Bots   []BotConfig    `hcl:"bot,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// GameSettings contains session pacing and continuity configuration
type GameSettings struct {
	// GracePeriodSeconds is how long a disconnected seat is held before
	// its resignation becomes available to the remaining players.
	GracePeriodSeconds int `hcl:"grace_period_seconds,optional"`
	// BotThinkMs delays bot actions so human players can follow along
	BotThinkMs int `hcl:"bot_think_ms,optional"`
	// HandDelayMs is the pause between scoring a hand and dealing the
	// next one.
	HandDelayMs int `hcl:"hand_delay_ms,optional"`
	// Seed fixes the server RNG for reproducible games; 0 seeds from
	// the clock.
	Seed int64 `hcl:"seed,optional"`
	// Monitor enables the styled stdout session monitor
	Monitor bool `hcl:"monitor,optional"`
}

// BotConfig defines a named bot personality available to sessions
type BotConfig struct {
	Name        string `hcl:"name,label"`
	Personality string `hcl:"personality"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "jokerwhist-server.log",
		},
		Game: GameSettings{
			GracePeriodSeconds: 60,
			BotThinkMs:         500,
			HandDelayMs:        3000,
		},
		Bots: []BotConfig{
			{Name: "bot1", Personality: "neutral"},
			{Name: "bot2", Personality: "conservative"},
			{Name: "bot3", Personality: "aggressive"},
		},
	}
}

// LoadServerConfig loads server configuration from HCL file
func LoadServerConfig(filename string) (*ServerConfig, error) {
	// Check if file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = "jokerwhist-server.log"
	}
	if config.Game.GracePeriodSeconds == 0 {
		config.Game.GracePeriodSeconds = 60
	}
	if config.Game.BotThinkMs == 0 {
		config.Game.BotThinkMs = 500
	}
	if config.Game.HandDelayMs == 0 {
		config.Game.HandDelayMs = 3000
	}

	for i := range config.Bots {
		if config.Bots[i].Personality == "" {
			config.Bots[i].Personality = "neutral"
		}
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Game.GracePeriodSeconds < 0 {
		return fmt.Errorf("grace period must not be negative")
	}
	if c.Game.BotThinkMs < 0 {
		return fmt.Errorf("bot think delay must not be negative")
	}
	if c.Game.HandDelayMs < 0 {
		return fmt.Errorf("hand delay must not be negative")
	}

	for _, b := range c.Bots {
		if _, err := bot.ParsePersonality(b.Personality); err != nil {
			return fmt.Errorf("bot %s: %w", b.Name, err)
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GetBotByName returns a bot configuration by name
func (c *ServerConfig) GetBotByName(name string) *BotConfig {
	for _, b := range c.Bots {
		if b.Name == name {
			return &b
		}
	}
	return nil
}

// GracePeriod returns the disconnect grace period as a duration
func (c *ServerConfig) GracePeriod() time.Duration {
	return time.Duration(c.Game.GracePeriodSeconds) * time.Second
}

// BotThinkDelay returns the bot action delay as a duration
func (c *ServerConfig) BotThinkDelay() time.Duration {
	return time.Duration(c.Game.BotThinkMs) * time.Millisecond
}

// HandDelay returns the between-hands pause as a duration
func (c *ServerConfig) HandDelay() time.Duration {
	return time.Duration(c.Game.HandDelayMs) * time.Millisecond
}
