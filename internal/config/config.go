// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// APIBaseURL is the HTTP surface of the matchmaking backend.
	APIBaseURL string
	// PrimaryWSURL is the always-on real-time channel.
	PrimaryWSURL string
	// MatchWSURL is the authenticated match-scoped channel.
	MatchWSURL string
	// ChatWSURL is the authenticated global-chat channel.
	ChatWSURL string
	// AuthToken is the bearer credential for protected endpoints and the
	// match channel. Empty means unauthenticated: queue viewing still works,
	// protected actions fail with a login prompt.
	AuthToken string
	// DebugAddr serves /healthz and the live state view. Empty disables it.
	DebugAddr string
	// LogLevel is a zap level string: debug, info, warn, error.
	LogLevel string
}

// Load reads .env when present and applies environment overrides. A
// missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:   "http://localhost:5000",
		PrimaryWSURL: "ws://localhost:5000/ws",
		MatchWSURL:   "ws://localhost:5000/ws/match",
		ChatWSURL:    "ws://localhost:5000/ws/chat",
		DebugAddr:    "127.0.0.1:6060",
		LogLevel:     "info",
	}

	if v := os.Getenv("ROMISH_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("ROMISH_WS_URL"); v != "" {
		cfg.PrimaryWSURL = v
	}
	if v := os.Getenv("ROMISH_MATCH_WS_URL"); v != "" {
		cfg.MatchWSURL = v
	}
	if v := os.Getenv("ROMISH_CHAT_WS_URL"); v != "" {
		cfg.ChatWSURL = v
	}
	if v := os.Getenv("ROMISH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("ROMISH_DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}
	if v := os.Getenv("ROMISH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}
