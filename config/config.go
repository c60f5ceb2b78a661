// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the service configuration from an optional YAML
// file, LABSCRIBE_* environment variables and built-in defaults.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/generator"
	"github.com/nlpodyssey/labscribe/render"
	"github.com/spf13/viper"
)

// Report archive drivers.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverOff      = "off"
)

// Config holds all configuration for the service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Model      ModelConfig      `mapstructure:"model"`
	Generation GenerationConfig `mapstructure:"generation"`
	Store      StoreConfig      `mapstructure:"store"`
	PDF        PDFConfig        `mapstructure:"pdf"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address                  string        `mapstructure:"address"`
	MaxConcurrentGenerations int           `mapstructure:"max_concurrent_generations"`
	HeartbeatInterval        time.Duration `mapstructure:"heartbeat_interval"`
}

// ModelConfig selects and tunes the completion model. Names can carry a
// provider prefix, e.g. "anthropic/claude-sonnet-4-5"; a bare name is
// resolved through OpenAI.
type ModelConfig struct {
	Name string `mapstructure:"name"`

	// API keys. Empty values fall back to the conventional environment
	// variables (OPENAI_API_KEY, ANTHROPIC_API_KEY).
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`

	// Alternative OpenAI-compatible endpoint.
	OpenAIBaseURL string `mapstructure:"openai_base_url"`

	// Retries after a failed completion attempt.
	MaxRetries uint64 `mapstructure:"max_retries"`
}

// GenerationConfig bounds a single report generation.
type GenerationConfig struct {
	WriterMaxTurns uint64        `mapstructure:"writer_max_turns"`
	TurnHeadroom   uint64        `mapstructure:"turn_headroom"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// StoreConfig contains report archive settings.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`
}

// PDFConfig contains PDF rendering settings.
type PDFConfig struct {
	PaperWidthInches  float64       `mapstructure:"paper_width_inches"`
	PaperHeightInches float64       `mapstructure:"paper_height_inches"`
	MarginInches      float64       `mapstructure:"margin_inches"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Verbose bool   `mapstructure:"verbose"`
}

func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.MaxConcurrentGenerations <= 0 {
		return fmt.Errorf("server.max_concurrent_generations must be greater than zero")
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("server.heartbeat_interval must be greater than zero")
	}
	return nil
}

func (c ModelConfig) Validate() error {
	// Model resolution has no nameless default; an empty name would only
	// fail later, at the first completion request.
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("model.name is required")
	}
	return nil
}

func (c GenerationConfig) Validate() error {
	if c.WriterMaxTurns == 0 {
		return fmt.Errorf("generation.writer_max_turns must be greater than zero")
	}
	if c.TurnHeadroom == 0 {
		return fmt.Errorf("generation.turn_headroom must be greater than zero")
	}
	return nil
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case StoreDriverSQLite, StoreDriverOff:
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("store.dsn is required when store.driver is %q", StoreDriverPostgres)
		}
	default:
		return fmt.Errorf("store.driver must be one of %q, %q, %q",
			StoreDriverSQLite, StoreDriverPostgres, StoreDriverOff)
	}
	return nil
}

func (c PDFConfig) Validate() error {
	if c.PaperWidthInches <= 0 || c.PaperHeightInches <= 0 {
		return fmt.Errorf("pdf paper size must be greater than zero")
	}
	if c.MarginInches < 0 {
		return fmt.Errorf("pdf.margin_inches cannot be negative")
	}
	return nil
}

func (c LogConfig) Validate() error {
	_, err := c.SlogLevel()
	return err
}

// SlogLevel parses the configured level name ("debug", "info", "warn",
// "error").
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q is invalid: %w", c.Level, err)
	}
	return level, nil
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if err := c.Generation.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.PDF.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Load reads the configuration. With an empty path it looks for
// labscribe.yaml in the working directory and ./config, and falls back
// to pure defaults when no file exists; an explicit path must exist.
// Every key can be overridden through the environment, e.g.
// LABSCRIBE_SERVER_ADDRESS or LABSCRIBE_MODEL_NAME.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("labscribe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("LABSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if path != "" || !notFound {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.max_concurrent_generations", 4)
	v.SetDefault("server.heartbeat_interval", "15s")

	v.SetDefault("model.name", "gpt-4.1")
	v.SetDefault("model.max_retries", agents.DefaultMaxRetries)

	v.SetDefault("generation.writer_max_turns", generator.DefaultWriterMaxTurns)
	v.SetDefault("generation.turn_headroom", generator.DefaultTurnHeadroom)
	v.SetDefault("generation.timeout", "10m")

	v.SetDefault("store.driver", StoreDriverSQLite)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", "reports")

	// A4 paper.
	v.SetDefault("pdf.paper_width_inches", 8.27)
	v.SetDefault("pdf.paper_height_inches", 11.69)
	v.SetDefault("pdf.margin_inches", 0.6)
	v.SetDefault("pdf.timeout", render.DefaultTimeout)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.verbose", false)
}
