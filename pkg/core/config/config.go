// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     config
// Description: Application configuration loaded from TOML or YAML
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	coreerr "github.com/msto63/livescribe/pkg/core/errors"
)

// Fixed capture format
const (
	SampleRate = 16000
	Channels   = 1
	BitDepth   = 16
)

// EnvConfigPath names the environment variable pointing at the config file
const EnvConfigPath = "LIVESCRIBE_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General    GeneralConfig    `toml:"general" yaml:"general"`
	Audio      AudioConfig      `toml:"audio" yaml:"audio"`
	Recording  RecordingConfig  `toml:"recording" yaml:"recording"`
	Engine     EngineConfig     `toml:"engine" yaml:"engine"`
	VAD        VADConfig        `toml:"vad" yaml:"vad"`
	Transcript TranscriptConfig `toml:"transcript" yaml:"transcript"`
	Server     ServerConfig     `toml:"server" yaml:"server"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	LogFile   string `toml:"log_file" yaml:"log_file"`
}

// AudioConfig holds capture settings
type AudioConfig struct {
	Device      string   `toml:"device" yaml:"device"`
	BufferBytes int      `toml:"buffer_bytes" yaml:"buffer_bytes"`
	MaxDuration Duration `toml:"max_duration" yaml:"max_duration"`
	StopTimeout Duration `toml:"stop_timeout" yaml:"stop_timeout"`
}

// RecordingConfig controls the WAV sink
type RecordingConfig struct {
	Persist   bool   `toml:"persist" yaml:"persist"`
	OutputDir string `toml:"output_dir" yaml:"output_dir"`
}

// Engine backends
const (
	BackendWhisperCLI  = "whisper-cli"
	BackendWhisperHTTP = "whisper-http"
)

// EngineConfig holds speech-to-text engine settings
type EngineConfig struct {
	Backend      string   `toml:"backend" yaml:"backend"`
	Binary       string   `toml:"binary" yaml:"binary"`
	ModelPath    string   `toml:"model_path" yaml:"model_path"`
	VocabPath    string   `toml:"vocab_path" yaml:"vocab_path"`
	Multilingual bool     `toml:"multilingual" yaml:"multilingual"`
	Language     string   `toml:"language" yaml:"language"`
	Threads      int      `toml:"threads" yaml:"threads"`
	HTTPURL      string   `toml:"http_url" yaml:"http_url"`
	Timeout      Duration `toml:"timeout" yaml:"timeout"`
}

// VADConfig holds the speech gate settings
type VADConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	Mode    int  `toml:"mode" yaml:"mode"`
}

// Transcript stores
const (
	StoreNone   = "none"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// TranscriptConfig selects where results are persisted
type TranscriptConfig struct {
	Store string `toml:"store" yaml:"store"`
	Path  string `toml:"path" yaml:"path"`
}

// ServerConfig holds the HTTP surface (websocket events, metrics)
type ServerConfig struct {
	Listen string `toml:"listen" yaml:"listen"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := seed()
	cfg.applyDefaults()
	cfg.expandEnvVars()
	return cfg
}

// seed holds defaults whose zero value is a valid setting
func seed() *Config {
	return &Config{VAD: VADConfig{Mode: 2}}
}

// Load loads configuration from a TOML or YAML file
func Load(path string) (*Config, error) {
	loadDotEnv()

	// Expand environment variables in path
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, coreerr.Newf(coreerr.CodeNotFound, "config.Load", "config file not found: %s", path)
	}

	cfg := *seed()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, coreerr.Wrap(err, coreerr.CodeIOError, "config.Load", "failed to read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, coreerr.Wrap(err, coreerr.CodeInvalidConfig, "config.Load", "failed to parse config")
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, coreerr.Wrap(err, coreerr.CodeInvalidConfig, "config.Load", "failed to parse config")
		}
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from LIVESCRIBE_CONFIG or a default
// location. Without any config file the defaults are returned.
func LoadFromEnv() (*Config, error) {
	loadDotEnv()

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// DefaultPaths lists the locations searched by LoadFromEnv
func DefaultPaths() []string {
	return []string{
		"./configs/livescribe.toml",
		"./livescribe.toml",
		"./livescribe.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/livescribe/config.toml"),
	}
}

// loadDotEnv loads ./.env if present; existing variables win
func loadDotEnv() {
	_ = godotenv.Load()
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.DataDir == "" {
		c.General.DataDir = filepath.Join(os.Getenv("HOME"), ".local/share/livescribe")
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Audio
	if c.Audio.MaxDuration.Duration == 0 {
		c.Audio.MaxDuration.Duration = 60 * time.Second
	}
	if c.Audio.StopTimeout.Duration == 0 {
		c.Audio.StopTimeout.Duration = 2 * time.Second
	}

	// Recording
	if c.Recording.OutputDir == "" {
		c.Recording.OutputDir = filepath.Join(c.General.DataDir, "recordings")
	}

	// Engine
	if c.Engine.Backend == "" {
		c.Engine.Backend = BackendWhisperCLI
	}
	if c.Engine.Language == "" {
		c.Engine.Language = "auto"
	}
	if c.Engine.Threads == 0 {
		c.Engine.Threads = 4
	}
	if c.Engine.HTTPURL == "" {
		c.Engine.HTTPURL = "http://localhost:8178"
	}
	if c.Engine.Timeout.Duration == 0 {
		c.Engine.Timeout.Duration = 60 * time.Second
	}

	// Transcript
	if c.Transcript.Store == "" {
		c.Transcript.Store = StoreNone
	}
	if c.Transcript.Path == "" {
		switch c.Transcript.Store {
		case StoreSQLite:
			c.Transcript.Path = filepath.Join(c.General.DataDir, "transcripts.db")
		case StoreFile:
			c.Transcript.Path = filepath.Join(c.General.DataDir, "transcripts")
		}
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.Recording.OutputDir = os.ExpandEnv(c.Recording.OutputDir)
	c.Engine.Binary = os.ExpandEnv(c.Engine.Binary)
	c.Engine.ModelPath = os.ExpandEnv(c.Engine.ModelPath)
	c.Engine.VocabPath = os.ExpandEnv(c.Engine.VocabPath)
	c.Engine.HTTPURL = os.ExpandEnv(c.Engine.HTTPURL)
	c.Transcript.Path = os.ExpandEnv(c.Transcript.Path)
}

// Validate checks values that have no sensible default
func (c *Config) Validate() error {
	const op = "config.Validate"

	if c.Audio.BufferBytes < 0 || c.Audio.BufferBytes%2 != 0 {
		return coreerr.Newf(coreerr.CodeInvalidConfig, op, "audio.buffer_bytes must be a non-negative even number, got %d", c.Audio.BufferBytes)
	}
	if c.Audio.MaxDuration.Duration < 0 {
		return coreerr.New(coreerr.CodeInvalidConfig, op, "audio.max_duration must not be negative")
	}
	switch c.Engine.Backend {
	case BackendWhisperCLI, BackendWhisperHTTP:
	default:
		return coreerr.Newf(coreerr.CodeInvalidConfig, op, "unknown engine.backend %q", c.Engine.Backend)
	}
	if c.VAD.Mode < 0 || c.VAD.Mode > 3 {
		return coreerr.Newf(coreerr.CodeInvalidConfig, op, "vad.mode must be 0-3, got %d", c.VAD.Mode)
	}
	switch c.Transcript.Store {
	case StoreNone, StoreFile, StoreSQLite:
	default:
		return coreerr.Newf(coreerr.CodeInvalidConfig, op, "unknown transcript.store %q", c.Transcript.Store)
	}
	return nil
}

// String renders the configuration as TOML
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
