package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	CORS       CORSConfig
	Log        LogConfig
	Encryption EncryptionConfig
	NAV        NAVConfig
	Ledger     LedgerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig selects the log level ("debug", "info", ...) and format ("json" or "text").
type LogConfig struct {
	Level  string
	Format string
}

// EncryptionConfig holds the fernet key used for PF account numbers.
// An empty key stores account numbers in plain text.
type EncryptionConfig struct {
	Key string
}

// NAVConfig configures the mutual fund NAV lookup service and the scheduled refresh.
type NAVConfig struct {
	BaseURL         string
	RateLimit       float64 // requests per second
	RefreshSchedule string  // cron spec, empty disables the refresh
}

// LedgerConfig holds recalculation settings.
type LedgerConfig struct {
	RecalcWorkers int
}

// fileConfig is the layout of the optional TOML file named by CONFIG_FILE.
// The encryption key is only read from the environment.
type fileConfig struct {
	Server struct {
		Host string `toml:"host"`
		Port string `toml:"port"`
	} `toml:"server"`
	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`
	CORS struct {
		AllowedOrigins []string `toml:"allowed_origins"`
	} `toml:"cors"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
	NAV struct {
		BaseURL         string  `toml:"base_url"`
		RateLimit       float64 `toml:"rate_limit"`
		RefreshSchedule string  `toml:"refresh_schedule"`
	} `toml:"nav"`
	Ledger struct {
		RecalcWorkers int `toml:"recalc_workers"`
	} `toml:"ledger"`
}

// Load reads configuration from environment variables and .env file.
// When CONFIG_FILE points at a TOML file its values replace the built-in
// defaults; environment variables still win over both.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	rateLimit, err := getEnvFloat("NAV_API_RATE_LIMIT", orFloat(file.NAV.RateLimit, 2))
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("RECALC_WORKERS", orInt(file.Ledger.RecalcWorkers, 4))
	if err != nil {
		return nil, err
	}

	origins := splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost"))
	if os.Getenv("CORS_ALLOWED_ORIGINS") == "" && len(file.CORS.AllowedOrigins) > 0 {
		origins = file.CORS.AllowedOrigins
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", or(file.Server.Port, "5001")),
			Host: getEnv("SERVER_HOST", or(file.Server.Host, "localhost")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", or(file.Database.Path, "./data/finance_ledger.db")),
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", or(file.Log.Level, "info")),
			Format: getEnv("LOG_FORMAT", or(file.Log.Format, "text")),
		},
		Encryption: EncryptionConfig{
			Key: os.Getenv("ENCRYPTION_KEY"),
		},
		NAV: NAVConfig{
			BaseURL:         getEnv("NAV_API_BASE_URL", or(file.NAV.BaseURL, "https://api.mfapi.in")),
			RateLimit:       rateLimit,
			RefreshSchedule: getEnv("NAV_REFRESH_SCHEDULE", or(file.NAV.RefreshSchedule, "0 22 * * 1-5")),
		},
		Ledger: LedgerConfig{
			RecalcWorkers: workers,
		},
	}

	if workers < 1 {
		return nil, fmt.Errorf("RECALC_WORKERS must be at least 1, got %d", workers)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

func loadFile(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func orFloat(value, fallback float64) float64 {
	if value == 0 {
		return fallback
	}
	return value
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
