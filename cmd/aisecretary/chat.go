package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Marksalz/AISecretary/internal/config"
	"github.com/Marksalz/AISecretary/internal/dialog"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to your calendar in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		engine, creds, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		session := dialog.NewSession(creds)

		fmt.Println(bannerStyle.Render("AISecretary"))
		fmt.Printf("provider=%s model=%s\n", cfg.Provider, valueOrDefault(cfg.Model, "default"))
		fmt.Println("Type /exit to quit, /cancel to drop a staged event.")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print(promptStyle.Render("> "))
			if !scanner.Scan() {
				fmt.Println()
				return nil
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			switch input {
			case "/exit", "exit", "quit":
				return nil
			case "/cancel":
				session.ClearPending()
				fmt.Println(replyStyle.Render("❌ Calendar event cancelled."))
				continue
			}

			turnCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			reply := engine.HandleMessage(turnCtx, session, input)
			cancel()

			style := replyStyle
			if !reply.Success {
				style = errStyle
			} else if reply.RequiresConfirmation {
				style = pendingStyle
			}
			fmt.Println(style.Render(reply.Data.Message))
		}
	},
}

func valueOrDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
