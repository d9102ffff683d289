package main

import (
	"os/signal"
	"syscall"

	"github.com/Marksalz/AISecretary/internal/config"
	"github.com/Marksalz/AISecretary/internal/telegram"
	"github.com/spf13/cobra"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the assistant as a Telegram bot",
	Long: `Telegram runs the assistant against the bot identified by the
TELEGRAM_BOT_TOKEN environment variable. Each Telegram chat gets its own
conversation, all acting on the calendar tokens from the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		engine, creds, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		bot, err := telegram.NewBot(engine, creds)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return bot.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(telegramCmd)
}
