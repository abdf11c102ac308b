// Package config loads server settings from the environment, reading a .env file first when present.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

// DevAuthSecret signs tokens when AUTH_SECRET is unset. Only acceptable with memory storage.
const DevAuthSecret = "connectaword-dev-secret"

// Config holds every setting the server reads at startup
type Config struct {
	Port          int
	StorageType   string
	RedisURL      string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
	CatalogDir    string
	AuthSecret    string
	TokenTTL      time.Duration
	LogFormat     string
	LogLevel      slog.Level
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Port:          8080,
		StorageType:   "memory",
		SQLitePath:    "connectaword.db",
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "connectaword",
		CatalogDir:    "data",
		TokenTTL:      24 * time.Hour,
		LogFormat:     "json",
		LogLevel:      slog.LevelInfo,
	}
}

// Load reads .env files (if they exist) and then the environment
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := get("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := get("STORAGE_TYPE"); v != "" {
		cfg.StorageType = strings.ToLower(v)
	}
	if v := get("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := get("MONGO_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := get("MONGO_DATABASE"); v != "" {
		cfg.MongoDatabase = v
	}
	if v := get("CATALOG_DIR"); v != "" {
		cfg.CatalogDir = v
	}
	if v := get("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", v)
		}
		cfg.TokenTTL = ttl
	}
	if v := get("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := get("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q", v)
		}
	}
	cfg.RedisURL = get("REDIS_URL")
	cfg.AuthSecret = get("AUTH_SECRET")

	switch cfg.StorageType {
	case "memory", "sqlite", "mongo":
	case "redis":
		if cfg.RedisURL == "" {
			return Config{}, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_TYPE %q", cfg.StorageType)
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", cfg.LogFormat)
	}

	if cfg.AuthSecret == "" {
		if cfg.StorageType != "memory" {
			return Config{}, errors.New("AUTH_SECRET required with persistent storage")
		}
		cfg.AuthSecret = DevAuthSecret
	}

	return cfg, nil
}

// UsingDevSecret reports whether tokens are signed with the built-in secret
func (c Config) UsingDevSecret() bool {
	return c.AuthSecret == DevAuthSecret
}

// Logger builds the process logger: JSON by default, tint's coloured console output for "text"
func (c Config) Logger(w io.Writer) *slog.Logger {
	if c.LogFormat == "text" {
		return slog.New(tint.NewHandler(w, &tint.Options{Level: c.LogLevel, TimeFormat: time.Kitchen}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
