// Package config provides configuration management for the normalizer and the server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"deathmap/internal/models"
)

// Configuration validation errors.
var (
	ErrNoSources                = errors.New("at least one source is required")
	ErrSourceMissingURLOrFile   = errors.New("either url or file is required")
	ErrSourceBothURLAndFile     = errors.New("url and file are mutually exclusive")
	ErrSourceMissingCategory    = errors.New("category is required")
	ErrSourceUnknownCategory    = errors.New("category is not a known death type")
	ErrSourceMissingIDPrefix    = errors.New("id_prefix is required")
	ErrSourceInvalidFormat      = errors.New("format must be 'json' or 'csv'")
	ErrSourceInvalidPageSize    = errors.New("page_size must be non-negative")
	ErrSourceUnknownSubtype     = errors.New("subtypes maps to an unknown subtype")
	ErrNoEnabledSources         = errors.New("at least one source must be enabled")
	ErrInvalidYear              = errors.New("dataset.year must be between 1900 and 2100")
	ErrInvalidMaxAttempts       = errors.New("fetch.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("fetch.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("fetch.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("fetch.retry.timeout_sec must be at least 1")
	ErrInvalidRateLimit         = errors.New("fetch.requests_per_second must be non-negative")
	ErrInvalidMaxBody           = errors.New("fetch.max_body_mb must be at least 1")
	ErrMissingOutputPath        = errors.New("output.path is required")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidPort              = errors.New("server.port must be between 1 and 65535")
)

// Source formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Dataset DatasetConfig  `yaml:"dataset"`
	Sources []SourceConfig `yaml:"sources"`
	Fetch   FetchConfig    `yaml:"fetch"`
	Output  OutputConfig   `yaml:"output"`
	Logging LoggingConfig  `yaml:"logging"`
	Server  ServerConfig   `yaml:"server"`
}

// DatasetConfig holds the artifact-level descriptive fields.
type DatasetConfig struct {
	Source      string `yaml:"source"`
	SourceURL   string `yaml:"source_url"`
	Description string `yaml:"description"`
	Year        int    `yaml:"year"`
	// Seed fixes the jitter source. Zero means a fresh entropy seed per run.
	Seed uint64 `yaml:"seed"`
}

// SourceConfig represents one raw export for a single death category.
type SourceConfig struct {
	Subtypes map[string]string `yaml:"subtypes"`
	Name     string            `yaml:"name"`
	Label    string            `yaml:"label"`
	Category string            `yaml:"category"`
	IDPrefix string            `yaml:"id_prefix"`
	URL      string            `yaml:"url"`
	File     string            `yaml:"file"`
	Format   string            `yaml:"format"`
	Year     int               `yaml:"year"`
	PageSize int               `yaml:"page_size"`
	Enabled  bool              `yaml:"enabled"`
}

// IsLocalFile returns true if this source uses a local file.
func (s *SourceConfig) IsLocalFile() bool {
	return s.File != ""
}

// GetSource returns the file path if local, or URL if remote.
func (s *SourceConfig) GetSource() string {
	if s.IsLocalFile() {
		return s.File
	}

	return s.URL
}

// DatasetLabel returns the label listed in the artifact metadata, falling
// back to the source name.
func (s *SourceConfig) DatasetLabel() string {
	if s.Label == "" {
		return s.Name
	}

	return s.Label
}

// GetFormat returns the declared format, defaulting to json.
func (s *SourceConfig) GetFormat() string {
	if s.Format == "" {
		return FormatJSON
	}

	return s.Format
}

// DeathType returns the category as a typed tag.
func (s *SourceConfig) DeathType() models.DeathType {
	return models.DeathType(s.Category)
}

// RetryPolicy defines retry behavior for remote sources.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// FetchConfig controls how remote sources are downloaded.
type FetchConfig struct {
	AppTokenEnv       string      `yaml:"app_token_env"`
	Retry             RetryPolicy `yaml:"retry"`
	RequestsPerSecond float64     `yaml:"requests_per_second"`
	MaxBodyMb         int         `yaml:"max_body_mb"`
}

// OutputConfig defines where and how the artifact is written.
type OutputConfig struct {
	Path        string `yaml:"path"`
	SQLitePath  string `yaml:"sqlite_path"`
	PrettyPrint bool   `yaml:"pretty_print"`
	Force       bool   `yaml:"force"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig defines the HTTP server.
type ServerConfig struct {
	Host          string `yaml:"host"`
	Artifact      string `yaml:"artifact"`
	Port          int    `yaml:"port"`
	SessionTTLMin int    `yaml:"session_ttl_min"`
}

// Defaults returns a Config populated with built-in defaults for every
// section except sources.
func Defaults() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Source:      "Instituto Nacional de Medicina Legal y Ciencias Forenses",
			SourceURL:   "https://www.datos.gov.co",
			Description: "Muertes violentas en Colombia (homicidios y suicidios)",
			Year:        2023,
		},
		Fetch: FetchConfig{
			AppTokenEnv: "SOCRATA_APP_TOKEN",
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        60,
			},
			RequestsPerSecond: 1.0,
			MaxBodyMb:         256,
		},
		Output: OutputConfig{
			Path:        "public/data/deaths/deaths-2023.json",
			PrettyPrint: true,
		},
		Logging: LoggingConfig{Level: "info"},
		Server: ServerConfig{
			Host:          "localhost",
			Port:          8080,
			Artifact:      "public/data/deaths/deaths-2023.json",
			SessionTTLMin: 30,
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of Defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Dataset.Year < 1900 || c.Dataset.Year > 2100 {
		return ErrInvalidYear
	}

	if len(c.Sources) == 0 {
		return ErrNoSources
	}

	enabledCount := 0

	for i := range c.Sources {
		if err := c.Sources[i].validate(); err != nil {
			return fmt.Errorf("%w: sources[%d]", err, i)
		}

		if c.Sources[i].Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledSources
	}

	if err := c.Fetch.validate(); err != nil {
		return err
	}

	if c.Output.Path == "" {
		return ErrMissingOutputPath
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}

	return nil
}

func (s *SourceConfig) validate() error {
	if s.URL == "" && s.File == "" {
		return ErrSourceMissingURLOrFile
	}

	if s.URL != "" && s.File != "" {
		return ErrSourceBothURLAndFile
	}

	if s.Category == "" {
		return ErrSourceMissingCategory
	}

	if !s.DeathType().Valid() {
		return fmt.Errorf("%w: %q", ErrSourceUnknownCategory, s.Category)
	}

	if s.IDPrefix == "" {
		return ErrSourceMissingIDPrefix
	}

	if f := s.GetFormat(); f != FormatJSON && f != FormatCSV {
		return ErrSourceInvalidFormat
	}

	if s.PageSize < 0 {
		return ErrSourceInvalidPageSize
	}

	if s.Year != 0 && (s.Year < 1900 || s.Year > 2100) {
		return ErrInvalidYear
	}

	known := map[models.Subtype]bool{
		models.SubtypeAccidenteTransito: true,
		models.SubtypeAhogamiento:       true,
		models.SubtypeCaida:             true,
		models.SubtypeIntoxicacion:      true,
		models.SubtypeArmaFuego:         true,
		models.SubtypeArmaBlanca:        true,
		models.SubtypeAsfixia:           true,
		models.SubtypeOtro:              true,
	}

	for mechanism, subtype := range s.Subtypes {
		if !known[models.Subtype(subtype)] {
			return fmt.Errorf("%w: %q -> %q", ErrSourceUnknownSubtype, mechanism, subtype)
		}
	}

	return nil
}

func (f *FetchConfig) validate() error {
	if f.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if f.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if f.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if f.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if f.RequestsPerSecond < 0 {
		return ErrInvalidRateLimit
	}

	if f.MaxBodyMb < 1 {
		return ErrInvalidMaxBody
	}

	return nil
}

// GetEnabledSources returns only enabled sources, in declaration order.
func (c *Config) GetEnabledSources() []SourceConfig {
	var enabled []SourceConfig

	for _, src := range c.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	return enabled
}

// SourceYear returns the year stamped on records from src.
func (c *Config) SourceYear(src SourceConfig) int {
	if src.Year != 0 {
		return src.Year
	}

	return c.Dataset.Year
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// MaxBodyBytes returns the response size cap in bytes.
func (f *FetchConfig) MaxBodyBytes() int64 {
	return int64(f.MaxBodyMb) * 1024 * 1024
}

// Addr returns host:port for the HTTP server.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionTTL returns how long an idle filter session is kept.
func (s *ServerConfig) SessionTTL() time.Duration {
	return time.Duration(s.SessionTTLMin) * time.Minute
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Year: %d, Sources: %d, MaxAttempts: %d, Output: %s}",
		c.Dataset.Year,
		len(c.Sources),
		c.Fetch.Retry.MaxAttempts,
		c.Output.Path,
	)
}
