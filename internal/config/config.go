package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gastos/internal/logger"
)

type Config struct {
	// Batch Configuration
	BatchWorkers int `yaml:"batch_workers"`

	// Report Configuration
	ReportOutput string `yaml:"report_output"`
	ReportSheet  string `yaml:"report_sheet"`

	// Google Sheets Configuration
	GoogleSheetURL       string `yaml:"google_sheet_url"`
	GoogleSheetWorksheet string `yaml:"google_sheet_worksheet"`

	// Logging Configuration
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	LogTimeFormat string `yaml:"log_time_format"`
	LogOutput     string `yaml:"log_output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BatchWorkers:         8,
		ReportOutput:         "Reporte_Gastos_CS.xlsx",
		ReportSheet:          "Gastos",
		GoogleSheetWorksheet: "Gastos",
		LogLevel:             "info",
		LogFormat:            "console",
		LogTimeFormat:        time.RFC3339,
		LogOutput:            "stderr",
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then environment variables.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.loadEnv(); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys missing from the file keep their current value.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if value := os.Getenv("BATCH_WORKERS"); value != "" {
		workers, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("BATCH_WORKERS must be an integer: %w", err)
		}
		c.BatchWorkers = workers
	}

	c.ReportOutput = getEnv("REPORT_OUTPUT", c.ReportOutput)
	c.ReportSheet = getEnv("REPORT_SHEET", c.ReportSheet)
	c.GoogleSheetURL = getEnv("GOOGLE_SHEET_URL", c.GoogleSheetURL)
	c.GoogleSheetWorksheet = getEnv("GOOGLE_SHEET_WORKSHEET", c.GoogleSheetWorksheet)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.LogTimeFormat = getEnv("LOG_TIME_FORMAT", c.LogTimeFormat)
	c.LogOutput = getEnv("LOG_OUTPUT", c.LogOutput)
	return nil
}

func (c *Config) validate() error {
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive, got %d", c.BatchWorkers)
	}
	if !strings.EqualFold(filepath.Ext(c.ReportOutput), ".xlsx") {
		return fmt.Errorf("REPORT_OUTPUT must be an .xlsx file, got %q", c.ReportOutput)
	}
	if strings.TrimSpace(c.ReportSheet) == "" {
		return fmt.Errorf("REPORT_SHEET is required")
	}
	if c.GoogleSheetURL != "" && strings.TrimSpace(c.GoogleSheetWorksheet) == "" {
		return fmt.Errorf("GOOGLE_SHEET_WORKSHEET is required when GOOGLE_SHEET_URL is set")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
