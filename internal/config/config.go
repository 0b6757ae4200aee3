// Package config provides configuration management for the commonality analyzer.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of analysis window bounds.
const DateLayout = "2006-01-02 15:04:05"

// Scorer names.
const (
	ScorerEmbedding = "embedding"
	ScorerLexical   = "lexical"
)

// Default similarity thresholds per scorer.
const (
	DefaultEmbeddingThreshold = 0.9997
	DefaultLexicalThreshold   = 0.80
)

// Configuration validation errors.
var (
	ErrMissingStartDate         = errors.New("analysis.start_date is required")
	ErrMissingEndDate           = errors.New("analysis.end_date is required")
	ErrInvalidDate              = errors.New("date must use the YYYY-MM-DD HH:MM:SS format")
	ErrEndBeforeStart           = errors.New("analysis.end_date cannot precede analysis.start_date")
	ErrMissingDataDir           = errors.New("analysis.data_dir is required")
	ErrMissingOutputDir         = errors.New("analysis.output_dir is required")
	ErrInvalidCarousels         = errors.New("analysis.carousels must be one of: INCLUDE_ALL, EXCLUDE_CAROUSELS, ONLY_CAROUSELS")
	ErrInvalidStrategy          = errors.New("analysis.strategy must be one of: LINKED, SIMILARITY")
	ErrInvalidWorkers           = errors.New("analysis.workers must be at least 1")
	ErrInvalidScorer            = errors.New("similarity.scorer must be one of: embedding, lexical")
	ErrInvalidThreshold         = errors.New("similarity.threshold must be in (0, 1]")
	ErrMissingEmbeddingEndpoint = errors.New("similarity.embedding.endpoint is required for the embedding scorer")
	ErrInvalidBatchSize         = errors.New("similarity.embedding.batch_size must be at least 1")
	ErrInvalidRate              = errors.New("similarity.embedding.requests_per_second must be non-negative")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be one of: text, pretty")
)

// Config represents the complete analyzer configuration.
type Config struct {
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Reports    ReportsConfig    `yaml:"reports"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AnalysisConfig selects the window, the inputs and the equivalence strategy.
type AnalysisConfig struct {
	StartDate string   `yaml:"start_date"`
	EndDate   string   `yaml:"end_date"`
	DataDir   string   `yaml:"data_dir"`
	OutputDir string   `yaml:"output_dir"`
	Carousels string   `yaml:"carousels"`
	Strategy  string   `yaml:"strategy"`
	Editions  []string `yaml:"editions"`
	Workers   int      `yaml:"workers"`
}

// ReportsConfig toggles the optional reports.
type ReportsConfig struct {
	Unpaired  bool `yaml:"unpaired"`
	Couples   bool `yaml:"couples"`
	Triples   bool `yaml:"triples"`
	Originals bool `yaml:"originals"`
	Flows     bool `yaml:"flows"`
	Clusters  bool `yaml:"clusters"`
	Summary   bool `yaml:"summary"`
}

// SimilarityConfig configures the similarity strategy.
type SimilarityConfig struct {
	Embedding      EmbeddingConfig `yaml:"embedding"`
	Scorer         string          `yaml:"scorer"`
	Retry          RetryPolicy     `yaml:"retry"`
	Threshold      float64         `yaml:"threshold"`
	RequireEnglish bool            `yaml:"require_english"`
}

// EmbeddingConfig points at an OpenAI-compatible embedding server.
type EmbeddingConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	Model             string  `yaml:"model"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// RetryPolicy defines retry behavior for embedding requests.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every optional report enabled.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			DataDir:   "./data",
			OutputDir: "./out",
			Carousels: "INCLUDE_ALL",
			Strategy:  "LINKED",
			Workers:   4,
		},
		Reports: ReportsConfig{
			Unpaired:  true,
			Couples:   true,
			Triples:   true,
			Originals: true,
			Flows:     true,
			Summary:   true,
		},
		Similarity: SimilarityConfig{
			Scorer: ScorerEmbedding,
			Embedding: EmbeddingConfig{
				BatchSize:         32,
				RequestsPerSecond: 5,
			},
			Retry: DefaultRetryPolicy(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultRetryPolicy is used when the retry section is omitted.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    500,
		MaxDelayMs:        30000,
		BackoffMultiplier: 2.0,
		TimeoutSec:        30,
	}
}

// LoadConfig loads configuration from YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse unmarshals YAML over the defaults without validating, so callers can apply
// overrides first.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()

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

// ApplyDefaults fills values that depend on other settings.
func (c *Config) ApplyDefaults() {
	c.Analysis.Carousels = strings.ToUpper(strings.TrimSpace(c.Analysis.Carousels))
	c.Analysis.Strategy = strings.ToUpper(strings.TrimSpace(c.Analysis.Strategy))
	c.Similarity.Scorer = strings.ToLower(strings.TrimSpace(c.Similarity.Scorer))

	if c.Similarity.Threshold == 0 {
		if c.Similarity.Scorer == ScorerLexical {
			c.Similarity.Threshold = DefaultLexicalThreshold
		} else {
			c.Similarity.Threshold = DefaultEmbeddingThreshold
		}
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.validateWindow(); err != nil {
		return err
	}

	if c.Analysis.DataDir == "" {
		return ErrMissingDataDir
	}

	if c.Analysis.OutputDir == "" {
		return ErrMissingOutputDir
	}

	switch c.Analysis.Carousels {
	case "INCLUDE_ALL", "EXCLUDE_CAROUSELS", "ONLY_CAROUSELS":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCarousels, c.Analysis.Carousels)
	}

	switch c.Analysis.Strategy {
	case "LINKED":
	case "SIMILARITY":
		if err := c.validateSimilarity(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, c.Analysis.Strategy)
	}

	if c.Analysis.Workers < 1 {
		return ErrInvalidWorkers
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "pretty" {
		return ErrInvalidLogFormat
	}

	return nil
}

func (c *Config) validateWindow() error {
	if c.Analysis.StartDate == "" {
		return ErrMissingStartDate
	}

	if c.Analysis.EndDate == "" {
		return ErrMissingEndDate
	}

	start, err := ParseDate(c.Analysis.StartDate)
	if err != nil {
		return fmt.Errorf("analysis.start_date: %w", err)
	}

	end, err := ParseDate(c.Analysis.EndDate)
	if err != nil {
		return fmt.Errorf("analysis.end_date: %w", err)
	}

	if end < start {
		return ErrEndBeforeStart
	}

	return nil
}

func (c *Config) validateSimilarity() error {
	s := c.Similarity

	switch s.Scorer {
	case ScorerEmbedding:
		if s.Embedding.Endpoint == "" {
			return ErrMissingEmbeddingEndpoint
		}

		if s.Embedding.BatchSize < 1 {
			return ErrInvalidBatchSize
		}

		if s.Embedding.RequestsPerSecond < 0 {
			return ErrInvalidRate
		}

		if err := s.Retry.Validate(); err != nil {
			return err
		}
	case ScorerLexical:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScorer, s.Scorer)
	}

	if s.Threshold <= 0 || s.Threshold > 1 {
		return ErrInvalidThreshold
	}

	return nil
}

// Validate checks the retry policy bounds.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if rp.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if rp.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if rp.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

// Window returns the analysis window as inclusive epoch seconds.
func (c *Config) Window() (int64, int64, error) {
	start, err := ParseDate(c.Analysis.StartDate)
	if err != nil {
		return 0, 0, err
	}

	end, err := ParseDate(c.Analysis.EndDate)
	if err != nil {
		return 0, 0, err
	}

	return start, end, nil
}

// ParseDate converts a YYYY-MM-DD HH:MM:SS date, read as UTC, to epoch seconds.
func ParseDate(date string) (int64, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	return t.Unix(), nil
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

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Window: %s..%s, Strategy: %s, Carousels: %s, Output: %s}",
		c.Analysis.StartDate,
		c.Analysis.EndDate,
		c.Analysis.Strategy,
		c.Analysis.Carousels,
		c.Analysis.OutputDir,
	)
}
