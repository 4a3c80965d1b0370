package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// TomlServer holds HTTP server settings
type TomlServer struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// Session cookie lifetime, e.g. "24h"
	SessionExpiration time.Duration `toml:"session_expiration"`
	CookieSecure      bool          `toml:"cookie_secure"`
	// Comma separated origins allowed to make credentialed requests
	AllowOrigins string `toml:"allow_origins"`
	// Login attempts allowed per client IP and minute
	LoginRateLimit int `toml:"login_rate_limit"`
}

// TomlFeed holds listing settings shared by every paginated route
type TomlFeed struct {
	PostsPerPage int `toml:"posts_per_page"`
}

// TomlLanguages configures post language detection
type TomlLanguages struct {
	Detect                  []string `toml:"detect"`
	MinimumRelativeDistance float64  `toml:"minimum_relative_distance"`
}

// TomlTasks configures the background worker pool
type TomlTasks struct {
	Workers      int           `toml:"workers"`
	QueueSize    int           `toml:"queue_size"`
	ExportDir    string        `toml:"export_dir"`
	TidyInterval time.Duration `toml:"tidy_interval"`
	Retention    time.Duration `toml:"retention"`
}

// TomlTranslator configures the external translation API
type TomlTranslator struct {
	Endpoint string        `toml:"endpoint"`
	Key      string        `toml:"key"`
	Region   string        `toml:"region"`
	Timeout  time.Duration `toml:"timeout"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Server     TomlServer     `toml:"server"`
	Feed       TomlFeed       `toml:"feed"`
	Languages  TomlLanguages  `toml:"languages"`
	Tasks      TomlTasks      `toml:"tasks"`
	Translator TomlTranslator `toml:"translator"`
}

// Default is used for anything the configuration file leaves out
func Default() *TomlConfig {
	return &TomlConfig{
		Server: TomlServer{
			Host:              "0.0.0.0",
			Port:              3000,
			SessionExpiration: 24 * time.Hour,
			AllowOrigins:      "http://localhost:3001",
			LoginRateLimit:    20,
		},
		Feed: TomlFeed{
			PostsPerPage: 10,
		},
		Languages: TomlLanguages{
			Detect:                  []string{"en", "es"},
			MinimumRelativeDistance: 0.1,
		},
		Tasks: TomlTasks{
			Workers:      2,
			QueueSize:    100,
			ExportDir:    "exports",
			TidyInterval: time.Hour,
			Retention:    30 * 24 * time.Hour,
		},
		Translator: TomlTranslator{
			Timeout: 10 * time.Second,
		},
	}
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the server cannot run with
func (c *TomlConfig) Validate() error {
	switch {
	case c.Feed.PostsPerPage < 1:
		return fmt.Errorf("feed.posts_per_page must be at least 1, got %d", c.Feed.PostsPerPage)
	case c.Server.LoginRateLimit < 1:
		return fmt.Errorf("server.login_rate_limit must be at least 1, got %d", c.Server.LoginRateLimit)
	case c.Tasks.Workers < 1:
		return fmt.Errorf("tasks.workers must be at least 1, got %d", c.Tasks.Workers)
	case c.Tasks.QueueSize < 1:
		return fmt.Errorf("tasks.queue_size must be at least 1, got %d", c.Tasks.QueueSize)
	case c.Tasks.ExportDir == "":
		return fmt.Errorf("tasks.export_dir must be set")
	case c.Tasks.TidyInterval <= 0:
		return fmt.Errorf("tasks.tidy_interval must be positive, got %s", c.Tasks.TidyInterval)
	}
	return nil
}
