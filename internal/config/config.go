package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the versioning core.
// Values come from the environment (after LoadDotEnv) with an optional
// config.yaml file providing overrides for the non-secret knobs.
type Config struct {
	Env string `yaml:"env"`

	// Database
	DBHost string `yaml:"db_host"`
	DBPort int    `yaml:"db_port"`
	DBUser string `yaml:"-"`
	DBPass string `yaml:"-"`
	DBName string `yaml:"db_name"`

	// Versioning
	DefaultStrategy string `yaml:"default_strategy"`

	// Hard cap on materialized recurring instances per event, so a distant
	// recurrence end date cannot explode a create into thousands of rows.
	MaxRecurringInstances int `yaml:"max_recurring_instances"`
}

// Load builds a Config from the environment, then applies config.yaml
// overrides when the file exists.
func Load() (*Config, error) {
	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnvInt("DB_PORT", 3306),
		DBUser:                getEnv("DB_USER", "eventium"),
		DBPass:                getEnv("DB_PASSWORD", ""),
		DBName:                getEnv("DB_NAME", "eventium"),
		DefaultStrategy:       getEnv("DEFAULT_RESOLUTION_STRATEGY", "merge"),
		MaxRecurringInstances: getEnvInt("MAX_RECURRING_INSTANCES", 730),
	}

	if path := getEnv("CONFIG_FILE", "config.yaml"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	return cfg, nil
}

// DSN returns the MySQL connection string for gorm's mysql driver.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
