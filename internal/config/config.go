package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server settings. It is read once at startup.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// Verse provider. An empty URL disables the verse card.
	VerseURL     string
	VerseAPIKey  string
	VerseTimeout time.Duration

	// Write endpoints allowed per client per minute.
	RateLimitPerMinute int

	BackupPassphrase string
}

// Load reads an optional .env file and then the LIGHTFAMILY_* environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:               getEnvString("LIGHTFAMILY_PORT", "8080"),
		DBPath:             getEnvString("LIGHTFAMILY_DB_PATH", "lightfamily.db"),
		LogLevel:           getEnvString("LIGHTFAMILY_LOG_LEVEL", "info"),
		LogFormat:          getEnvString("LIGHTFAMILY_LOG_FORMAT", "text"),
		VerseURL:           strings.TrimSpace(os.Getenv("LIGHTFAMILY_VERSE_URL")),
		VerseAPIKey:        os.Getenv("LIGHTFAMILY_VERSE_API_KEY"),
		VerseTimeout:       getEnvDuration("LIGHTFAMILY_VERSE_TIMEOUT", 15*time.Second),
		RateLimitPerMinute: getEnvInt("LIGHTFAMILY_RATE_LIMIT_PER_MINUTE", 60),
		BackupPassphrase:   os.Getenv("LIGHTFAMILY_BACKUP_PASSPHRASE"),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("LIGHTFAMILY_PORT must be numeric, got %q", cfg.Port)
	}
	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
