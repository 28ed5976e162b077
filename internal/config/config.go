// Package config provides YAML-based configuration for the match server:
// listen address, database path and the default game options handed to
// matches whose creator supplies none.
package config

import (
	"github.com/jremy42/42-ft-transcendence/internal/game"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Game   game.Options `yaml:"game"`
}

// ServerConfig defines the network and storage settings.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:   ":8080",
			DBPath: "~/.pongd/games.db",
		},
		Game: game.DefaultOptions(),
	}
}
