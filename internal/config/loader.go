package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the server configuration.
// Search order: customPath -> ./pongd.yaml -> built-in defaults.
// A missing file is not an error unless it was requested explicitly.
func Load(customPath string) (Config, error) {
	cfg := Default()

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		cfg.Game = cfg.Game.Normalized()
		return cfg, nil
	}

	if data, err := os.ReadFile("pongd.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse pongd.yaml: %w", err)
		}
	}
	cfg.Game = cfg.Game.Normalized()
	return cfg, nil
}

// ApplyEnv overlays environment variables on a loaded configuration.
// PONGD_ADDR and PONGD_DB take precedence over file values; the CLI loads
// a .env file beforehand so both mechanisms share these names.
func (c *Config) ApplyEnv() {
	if addr := os.Getenv("PONGD_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if db := os.Getenv("PONGD_DB"); db != "" {
		c.Server.DBPath = db
	}
}
