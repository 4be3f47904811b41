package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ctfwatch/internal/config"
	"ctfwatch/internal/notify"
)

func runChatID(cmd *cobra.Command, _ []string) error {
	cfgFile, envFile := configPaths(cmd)
	cfg, err := config.LoadChatID(cfgFile, envFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tg, err := notify.NewTelegram(cfg.TelegramToken, logger)
	if err != nil {
		return err
	}

	chatID, err := awaitChatID(ctx, tg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chat ID: %s\n", chatID)
	fmt.Fprintf(out, "Update your .env file with: TELEGRAM_CHAT_ID=%s\n", chatID)
	logger.Info("chat id discovered", zap.String("chat_id", chatID))
	return nil
}

// awaitChatID returns the origin of the first inbound message.
func awaitChatID(ctx context.Context, source notify.CommandSource) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	commands, err := source.Commands(ctx)
	if err != nil {
		return "", fmt.Errorf("listen for messages: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Waiting for a message... send any text to the bot on Telegram now.")

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case cmd, ok := <-commands:
		if !ok {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("message stream closed before any message arrived")
		}
		return cmd.OriginID, nil
	}
}
