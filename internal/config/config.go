package config

import (
	"os"
	"strconv"

	"github.com/wsuduce/ghost-rank/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Detector DetectorConfig
	Results  ResultsConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds the optional run-archive connection settings.
// An empty URL disables archival entirely.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// Enabled reports whether a run archive has been configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// DetectorConfig holds batch detection settings
type DetectorConfig struct {
	Threshold  float64
	RankFilter int
	TopN       int
}

// ResultsConfig holds output locations
type ResultsConfig struct {
	Dir             string
	GhostsCSV       string
	CalibrationJSON string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   loadServerConfig(),
		Database: loadDatabaseConfig(),
		Detector: loadDetectorConfig(),
		Results:  loadResultsConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Threshold:  getEnvFloatOrDefault("GHOST_THRESHOLD", 0.025),
		RankFilter: getEnvIntOrDefault("RANK_FILTER", 0),
		TopN:       getEnvIntOrDefault("TOP_N", 50),
	}
}

func loadResultsConfig() ResultsConfig {
	dir := getEnvOrDefault("RESULTS_DIR", "results")
	return ResultsConfig{
		Dir:             dir,
		GhostsCSV:       getEnvOrDefault("GHOSTS_CSV", "ghosts.csv"),
		CalibrationJSON: getEnvOrDefault("CALIBRATION_JSON", "calibration_curve.json"),
	}
}

func validateConfig(config *Config) error {
	port, err := strconv.Atoi(config.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return errors.ConfigInvalid("PORT must be a number between 1 and 65535")
	}
	if config.Detector.Threshold <= 0 {
		return errors.ConfigInvalid("GHOST_THRESHOLD must be positive")
	}
	if config.Detector.RankFilter < 0 {
		return errors.ConfigInvalid("RANK_FILTER must be non-negative")
	}
	if config.Detector.TopN < 1 {
		return errors.ConfigInvalid("TOP_N must be at least 1")
	}
	if config.Results.Dir == "" {
		return errors.ConfigInvalid("RESULTS_DIR must not be empty")
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
