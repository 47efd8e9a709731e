// Package config reads host settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables understood by the screener commands.
const (
	EnvScript          = "SCREENER_SCRIPT"
	EnvSalaryThreshold = "SCREENER_SALARY_THRESHOLD"
	EnvMaxAttempts     = "SCREENER_MAX_ATTEMPTS"
	EnvMaxInputSize    = "SCREENER_MAX_INPUT_SIZE"
	EnvPort            = "SCREENER_PORT"
	EnvDebug           = "SCREENER_DEBUG"
	EnvLogFormat       = "SCREENER_LOG_FORMAT"
	EnvLogLevel        = "SCREENER_LOG_LEVEL"
	EnvReadTimeout     = "SCREENER_READ_TIMEOUT"
	EnvWriteTimeout    = "SCREENER_WRITE_TIMEOUT"
	EnvShutdownTimeout = "SCREENER_SHUTDOWN_TIMEOUT"
)

type Config struct {
	// Script is the path of a YAML interview script. Empty selects the embedded default.
	Script string

	// SalaryThreshold overrides the script's threshold when set.
	SalaryThreshold *float64

	// MaxAttempts caps re-prompting in the runner. Zero means unlimited.
	MaxAttempts  int
	MaxInputSize int

	Debug     bool
	LogFormat string
	LogLevel  string

	Server ServerConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address for the port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadDotEnv loads the given .env files (".env" when none are named) into the
// process environment. Missing files are not an error; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
// Unparseable values fall back to their defaults.
func Load() *Config {
	return &Config{
		Script:          getEnv(EnvScript, ""),
		SalaryThreshold: lookupFloat(EnvSalaryThreshold),
		MaxAttempts:     getEnvAsInt(EnvMaxAttempts, 0),
		MaxInputSize:    getEnvAsInt(EnvMaxInputSize, 4096),
		Debug:           getEnvAsBool(EnvDebug, false),
		LogFormat:       getEnv(EnvLogFormat, "text"),
		LogLevel:        getEnv(EnvLogLevel, "warn"),
		Server: ServerConfig{
			Port:            getEnvAsInt(EnvPort, 8080),
			ReadTimeout:     getEnvAsDuration(EnvReadTimeout, 10*time.Second),
			WriteTimeout:    getEnvAsDuration(EnvWriteTimeout, 10*time.Second),
			ShutdownTimeout: getEnvAsDuration(EnvShutdownTimeout, 5*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func lookupFloat(key string) *float64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
