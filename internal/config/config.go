// Package config loads settings from a TOML file with environment overrides.
// The file is looked up in the working directory first, then under
// $HOME/.config/aisecretary/.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const DefaultFileName = "aisecretary.toml"

type Config struct {
	// LLM settings.
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`

	// Google Calendar OAuth app.
	GoogleClientID     string `toml:"google_client_id"`
	GoogleClientSecret string `toml:"google_client_secret"`

	// Token pair every mode acts with. All transports, the HTTP server
	// included, serve this single user's calendar.
	GoogleAccessToken  string `toml:"google_access_token"`
	GoogleRefreshToken string `toml:"google_refresh_token"`

	ListenAddr string `toml:"listen_addr"`
	TracePath  string `toml:"trace_path"`
}

func defaults() Config {
	return Config{
		Provider:   "gemini",
		ListenAddr: ":8080",
	}
}

// Load reads the config file and applies env overrides. A missing file is not
// an error; env alone can carry a full configuration.
func Load(filename string) (*Config, error) {
	_ = godotenv.Load()

	if filename == "" {
		filename = DefaultFileName
	}

	cfg := defaults()
	data, err := os.ReadFile(filename)
	if err != nil {
		home, _ := os.UserHomeDir()
		fallback := filepath.Join(home, ".config", "aisecretary", filename)
		if data, err = os.ReadFile(fallback); err != nil {
			data = nil
		}
	}
	if data != nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// applyEnv lets environment variables override file values.
func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"AISECRETARY_PROVIDER":        &cfg.Provider,
		"AISECRETARY_MODEL":           &cfg.Model,
		"AISECRETARY_BASE_URL":        &cfg.BaseURL,
		"AISECRETARY_LISTEN_ADDR":     &cfg.ListenAddr,
		"AISECRETARY_TRACE_PATH":      &cfg.TracePath,
		"GOOGLE_CLIENT_ID":            &cfg.GoogleClientID,
		"GOOGLE_CLIENT_SECRET":        &cfg.GoogleClientSecret,
		"GOOGLE_ACCESS_TOKEN":         &cfg.GoogleAccessToken,
		"GOOGLE_REFRESH_TOKEN":        &cfg.GoogleRefreshToken,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
}
