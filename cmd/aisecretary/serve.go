package main

import (
	"os/signal"
	"syscall"

	"github.com/Marksalz/AISecretary/internal/config"
	"github.com/Marksalz/AISecretary/internal/server"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP chat API",
	Long: `Serve exposes the assistant over HTTP.

POST /api/chat accepts {"message": "..."} and replies with the assistant's
JSON envelope. Conversations are tracked with a conversation_id cookie, so
each client keeps its own staged action. Every conversation acts on the
calendar tokens from the config; this is a single-user server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}

		engine, creds, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.New(engine, creds, cfg.ListenAddr)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "addr", "a", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
