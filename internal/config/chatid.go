package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// ChatIDConfig holds configuration for the chat-id command.
type ChatIDConfig struct {
	TelegramToken string
	LogLevel      string
}

// LoadChatID merges .env, config file, environment variables, and flags into
// ChatIDConfig.
func LoadChatID(cfgFile, envFile string, flags *pflag.FlagSet) (ChatIDConfig, error) {
	v, err := newViper(cfgFile, envFile, flags)
	if err != nil {
		return ChatIDConfig{}, err
	}
	v.SetDefault("log-level", "info")

	cfg := ChatIDConfig{
		TelegramToken: strings.TrimSpace(v.GetString("telegram-token")),
		LogLevel:      v.GetString("log-level"),
	}
	if cfg.TelegramToken == "" {
		return ChatIDConfig{}, fmt.Errorf("telegram bot token is required (TELEGRAM_BOT_TOKEN or --telegram-token)")
	}
	return cfg, nil
}
