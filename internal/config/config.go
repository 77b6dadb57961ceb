package config

import (
	"os"
	"strconv"
	"strings"

	"goexp/domain/experiment"
	"goexp/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	Limits   LimitsConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
	Workbook WorkbookConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AnalysisConfig holds the defaults applied when a request leaves a field out
type AnalysisConfig struct {
	DefaultConfidence float64
	DefaultPower      float64
	DefaultCorrection experiment.Correction
}

// LimitsConfig bounds what the routing layer accepts before invoking the core
type LimitsConfig struct {
	MinConfidence float64
	MaxConfidence float64
	MinPower      float64
	MaxPower      float64
	MaxVariants   int
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// WorkbookConfig holds batch ingestion settings
type WorkbookConfig struct {
	Concurrency int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	analysisConfig, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}

	config := &Config{
		Server:   *loadServerConfig(),
		Analysis: *analysisConfig,
		Limits:   *loadLimitsConfig(),
		Logging:  *loadLoggingConfig(),
		Metrics:  *loadMetricsConfig(),
		Workbook: *loadWorkbookConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration Load would produce with an empty environment.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080", GinMode: "release"},
		Analysis: AnalysisConfig{DefaultConfidence: 95, DefaultPower: 80, DefaultCorrection: experiment.CorrectionBonferroni},
		Limits:   LimitsConfig{MinConfidence: 80, MaxConfidence: 99, MinPower: 50, MaxPower: 99, MaxVariants: 10},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
		Workbook: WorkbookConfig{Concurrency: 4},
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	correction, err := experiment.ParseCorrection(getEnvOrDefault("DEFAULT_CORRECTION", string(experiment.CorrectionBonferroni)))
	if err != nil {
		return nil, errors.ConfigInvalid("DEFAULT_CORRECTION must be bonferroni or none")
	}

	return &AnalysisConfig{
		DefaultConfidence: getEnvFloatOrDefault("DEFAULT_CONFIDENCE", 95),
		DefaultPower:      getEnvFloatOrDefault("DEFAULT_POWER", 80),
		DefaultCorrection: correction,
	}, nil
}

func loadLimitsConfig() *LimitsConfig {
	return &LimitsConfig{
		MinConfidence: getEnvFloatOrDefault("MIN_CONFIDENCE", 80),
		MaxConfidence: getEnvFloatOrDefault("MAX_CONFIDENCE", 99),
		MinPower:      getEnvFloatOrDefault("MIN_POWER", 50),
		MaxPower:      getEnvFloatOrDefault("MAX_POWER", 99),
		MaxVariants:   getEnvIntOrDefault("MAX_VARIANTS", 10),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
	}
}

func loadMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
		Path:    getEnvOrDefault("METRICS_PATH", "/metrics"),
	}
}

func loadWorkbookConfig() *WorkbookConfig {
	return &WorkbookConfig{
		Concurrency: getEnvIntOrDefault("WORKBOOK_CONCURRENCY", 4),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	l := config.Limits
	if !(l.MinConfidence > 0 && l.MinConfidence <= l.MaxConfidence && l.MaxConfidence < 100) {
		return errors.ConfigInvalid("confidence bounds must satisfy 0 < MIN_CONFIDENCE <= MAX_CONFIDENCE < 100")
	}
	if !(l.MinPower > 0 && l.MinPower <= l.MaxPower && l.MaxPower < 100) {
		return errors.ConfigInvalid("power bounds must satisfy 0 < MIN_POWER <= MAX_POWER < 100")
	}
	if l.MaxVariants < 2 {
		return errors.ConfigInvalid("MAX_VARIANTS must be at least 2")
	}
	a := config.Analysis
	if a.DefaultConfidence < l.MinConfidence || a.DefaultConfidence > l.MaxConfidence {
		return errors.ConfigInvalid("DEFAULT_CONFIDENCE must lie within the confidence bounds")
	}
	if a.DefaultPower < l.MinPower || a.DefaultPower > l.MaxPower {
		return errors.ConfigInvalid("DEFAULT_POWER must lie within the power bounds")
	}
	if config.Workbook.Concurrency < 1 {
		return errors.ConfigInvalid("WORKBOOK_CONCURRENCY must be positive")
	}
	if config.Logging.Format != "text" && config.Logging.Format != "json" {
		return errors.ConfigInvalid("LOG_FORMAT must be text or json")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
