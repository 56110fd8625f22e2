package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultServerURL = "http://localhost:5000"

type ServerConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type Config struct {
	Server  ServerConfig `yaml:"server"`
	LogFile string       `yaml:"log_file"`
}

// Load reads the config from ~/.config/scriptctl/config.yaml.
// Returns a default config pointing at localhost if the file doesn't exist.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaults(), nil
	}
	return loadFrom(filepath.Join(home, ".config", "scriptctl", "config.yaml"))
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.URL == "" {
		cfg.Server.URL = defaultServerURL
	}
	// Expand ~ in log_file
	if len(cfg.LogFile) > 0 && cfg.LogFile[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.LogFile = filepath.Join(home, cfg.LogFile[1:])
		}
	}

	return &cfg, nil
}

func defaults() *Config {
	return &Config{Server: ServerConfig{URL: defaultServerURL}}
}
