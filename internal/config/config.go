package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string        `yaml:"port"`
	BackendURL  string        `yaml:"backend_url"`
	PayloadPath string        `yaml:"payload_path"`
	PayloadURL  string        `yaml:"payload_url"`
	ManagerID   string        `yaml:"manager_id"`
	StoreUserID int           `yaml:"store_user_id"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	LogLevel    slog.Level    `yaml:"-"`
	Level       string        `yaml:"log_level"`
}

func Defaults() Config {
	return Config{
		Port:        "8080",
		ManagerID:   "manager_1",
		StoreUserID: 295,
		HTTPTimeout: 30 * time.Second,
		LogLevel:    slog.LevelInfo,
		Level:       "info",
	}
}

// Load reads the optional CONFIG_FILE first, then lets env vars override it.
func Load() (Config, error) {
	cfg := Defaults()
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", p, err)
		}
	}
	applyEnv(&cfg)
	cfg.LogLevel = parseLevel(cfg.Level)
	return cfg, nil
}

// FromEnv is Load without a config file error path; a bad file is ignored.
func FromEnv() Config {
	cfg, err := Load()
	if err != nil {
		cfg = Defaults()
		applyEnv(&cfg)
		cfg.LogLevel = parseLevel(cfg.Level)
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	if v := os.Getenv("STORE_USER_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.StoreUserID = id
		}
	}
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.BackendURL = envOr("BACKEND_URL", cfg.BackendURL)
	cfg.PayloadPath = envOr("PAYLOAD_PATH", cfg.PayloadPath)
	cfg.PayloadURL = envOr("PAYLOAD_URL", cfg.PayloadURL)
	cfg.ManagerID = envOr("MANAGER_ID", cfg.ManagerID)
	cfg.Level = envOr("LOG_LEVEL", cfg.Level)
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
