package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything the editor needs to reach the backend.
type Config struct {
	ServerURL         string
	RoutingURL        string
	RoutingProfile    string
	Token             string
	SnapTolerancePx   float64
	ReconnectAttempts int
	ListRetries       int
	LogPath           string
	LogMode           string
	Zoom              float64
}

const (
	defaultConfigPath        = "~/.config/trailedit/config.toml"
	defaultLogPath           = "~/.local/share/trailedit/trailedit.log"
	defaultServerURL         = "ws://127.0.0.1:3000/socket"
	defaultRoutingURL        = "http://127.0.0.1:5000"
	defaultRoutingProfile    = "foot"
	defaultSnapTolerancePx   = 10
	defaultReconnectAttempts = 5
	defaultListRetries       = 2
	defaultLogMode           = "production"
	defaultZoom              = 16

	// TokenEnv overrides the token from the file.
	TokenEnv = "TRAILEDIT_TOKEN"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServerURL:         defaultServerURL,
		RoutingURL:        defaultRoutingURL,
		RoutingProfile:    defaultRoutingProfile,
		SnapTolerancePx:   defaultSnapTolerancePx,
		ReconnectAttempts: defaultReconnectAttempts,
		ListRetries:       defaultListRetries,
		LogPath:           mustExpand(defaultLogPath),
		LogMode:           defaultLogMode,
		Zoom:              defaultZoom,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerURL         string   `toml:"server_url"`
		RoutingURL        string   `toml:"routing_url"`
		RoutingProfile    string   `toml:"routing_profile"`
		Token             string   `toml:"token"`
		SnapTolerancePx   *float64 `toml:"snap_tolerance_px"`
		ReconnectAttempts *int     `toml:"reconnect_attempts"`
		ListRetries       *int     `toml:"list_retries"`
		LogPath           string   `toml:"log_path"`
		LogMode           string   `toml:"log_mode"`
		Zoom              *float64 `toml:"zoom"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.ServerURL = orDefault(raw.ServerURL, defaultServerURL)
	cfg.RoutingURL = orDefault(raw.RoutingURL, defaultRoutingURL)
	cfg.RoutingProfile = orDefault(raw.RoutingProfile, defaultRoutingProfile)
	cfg.Token = strings.TrimSpace(raw.Token)
	cfg.LogMode = strings.ToLower(orDefault(raw.LogMode, defaultLogMode))
	cfg.LogPath = mustExpand(orDefault(raw.LogPath, defaultLogPath))

	if raw.SnapTolerancePx != nil && *raw.SnapTolerancePx > 0 {
		cfg.SnapTolerancePx = *raw.SnapTolerancePx
	}
	if raw.ReconnectAttempts != nil && *raw.ReconnectAttempts >= 0 {
		cfg.ReconnectAttempts = *raw.ReconnectAttempts
	}
	if raw.ListRetries != nil && *raw.ListRetries >= 0 {
		cfg.ListRetries = *raw.ListRetries
	}
	if raw.Zoom != nil && *raw.Zoom >= 0 && *raw.Zoom <= 24 {
		cfg.Zoom = *raw.Zoom
	}
	if cfg.LogMode != "production" && cfg.LogMode != "development" {
		return Config{}, fmt.Errorf("parse config: log_mode %q must be production or development", raw.LogMode)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		c.Token = token
	}
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
