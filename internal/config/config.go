// Package config loads the application configuration from environment
// variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	WSURL     string
	LoginURL  string
	Username  string
	Password  string
	Avatar    string
	Format    string

	RedisURL    string
	DatabaseURL string

	TeamDir string

	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		WSURL:                "wss://sim.psim.us/showdown/websocket",
		LoginURL:             "https://play.pokemonshowdown.com/action.php",
		Format:               "gen4randombattle",
		MaxReconnectAttempts: 10,
		ReconnectDelay:       time.Second,
	}

	if v := strings.TrimSpace(os.Getenv("PS_WS_URL")); v != "" {
		cfg.WSURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PS_LOGIN_URL")); v != "" {
		cfg.LoginURL = v
	}
	cfg.Username = strings.TrimSpace(os.Getenv("PS_USERNAME"))
	cfg.Password = strings.TrimSpace(os.Getenv("PS_PASSWORD"))
	cfg.Avatar = strings.TrimSpace(os.Getenv("PS_AVATAR"))
	if v := strings.TrimSpace(os.Getenv("PS_FORMAT")); v != "" {
		cfg.Format = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.TeamDir = strings.TrimSpace(os.Getenv("TEAM_DIR"))

	if v := strings.TrimSpace(os.Getenv("PS_MAX_RECONNECT_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxReconnectAttempts = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("PS_RECONNECT_DELAY")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ReconnectDelay = d
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Username == "" {
		return errors.New("PS_USERNAME is required")
	}
	if !strings.HasPrefix(c.WSURL, "ws://") && !strings.HasPrefix(c.WSURL, "wss://") {
		return errors.New("PS_WS_URL must be a ws:// or wss:// URL")
	}
	if !strings.HasPrefix(c.LoginURL, "http://") && !strings.HasPrefix(c.LoginURL, "https://") {
		return errors.New("PS_LOGIN_URL must be an http(s) URL")
	}
	return nil
}
