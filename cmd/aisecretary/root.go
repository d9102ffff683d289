package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Marksalz/AISecretary/internal/calendar"
	"github.com/Marksalz/AISecretary/internal/config"
	"github.com/Marksalz/AISecretary/internal/dialog"
	"github.com/Marksalz/AISecretary/internal/extract"
	"github.com/Marksalz/AISecretary/internal/llm"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "aisecretary",
	Short: "A conversational assistant for your Google Calendar",
	Long: `AISecretary turns plain-language requests into Google Calendar operations.

Tell it things like "add lunch with Dana tomorrow at noon" or "am I free
Friday at 3pm?" and it stages the change, checks for conflicts, and asks
you to confirm before anything touches your calendar.

Run it as an interactive terminal chat, an HTTP API, or a Telegram bot:
  aisecretary chat        # talk in your terminal
  aisecretary serve       # expose POST /api/chat
  aisecretary telegram    # run as a Telegram bot`,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default aisecretary.toml, then $HOME/.config/aisecretary/)")
}

// buildEngine wires the LLM, extractor and calendar client into a dialog
// engine. The returned credentials are the single-user token pair from the
// config, used by the chat and telegram modes.
func buildEngine(cfg *config.Config) (*dialog.Engine, calendar.Credentials, error) {
	completer, err := llm.NewCompleter(llm.Provider(cfg.Provider), cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, calendar.Credentials{}, fmt.Errorf("initialize llm: %w", err)
	}

	extractor := extract.New(completer)
	cal := calendar.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret)
	engine := dialog.NewEngine(extractor, cal)

	if cfg.TracePath != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.TracePath), 0o755)
		f, err := os.OpenFile(cfg.TracePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to open trace file (%s): %v\n", cfg.TracePath, err)
		} else {
			engine.SetTraceWriter(f)
		}
	}

	creds := calendar.Credentials{
		AccessToken:  cfg.GoogleAccessToken,
		RefreshToken: cfg.GoogleRefreshToken,
	}
	return engine, creds, nil
}
