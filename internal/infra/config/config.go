// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/deathscreen/internal/domain/message"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Host    HostConfig    `yaml:"host"`
	Overlay OverlayConfig `yaml:"overlay"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" env:"DEATHSCREEN_ADDR" default:":8080"`
	Token string      `yaml:"token" env:"DEATHSCREEN_HOST_TOKEN"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// HostConfig represents the outbound channel to the game client.
type HostConfig struct {
	ResourceName string `yaml:"resource_name" env:"DEATHSCREEN_RESOURCE_NAME" default:"qbx_ambulancejob" validate:"required"`
	BaseURL      string `yaml:"base_url" env:"DEATHSCREEN_HOST_BASE_URL" validate:"omitempty,url"`
	TimeoutMs    int    `yaml:"timeout_ms" default:"2000" validate:"gte=100,lte=30000"`
}

// OverlayConfig represents the fallbacks used when the host omits values.
type OverlayConfig struct {
	DeathTimer int         `yaml:"death_timer" default:"120" validate:"gte=1,lte=86400"`
	Debug      bool        `yaml:"debug" env:"DEATHSCREEN_DEBUG"`
	Texts      TextsConfig `yaml:"texts"`
}

// TextsConfig represents the default overlay texts.
type TextsConfig struct {
	SendSignal  string `yaml:"send_signal" default:"Изпратете сигнал към EMS натиснете [G]"`
	RespawnText string `yaml:"respawn_text" default:"Задръжте [E] за да се респаунете"`
	ItemWarning string `yaml:"item_warning" default:"(Всички айтъми ще бъдат изтрити!)"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	return Parse([]byte("{}"))
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// HostTimeout returns the outbound request timeout.
func (c *Config) HostTimeout() time.Duration {
	return time.Duration(c.Host.TimeoutMs) * time.Millisecond
}

// DefaultTexts returns the configured default texts.
func (c *Config) DefaultTexts() message.Texts {
	return message.Texts{
		SendSignal:  c.Overlay.Texts.SendSignal,
		RespawnText: c.Overlay.Texts.RespawnText,
		ItemWarning: c.Overlay.Texts.ItemWarning,
	}
}
