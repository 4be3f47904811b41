package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ctfwatch/internal/alert"
	"ctfwatch/internal/model"
	"ctfwatch/internal/registry"
)

const (
	DefaultExchange     = registry.DefaultExchangeAddress
	DefaultBotName      = "Polymarket Watcher"
	DefaultExplorerHost = alert.DefaultExplorerHost
	DefaultDedupWindow  = alert.DefaultDedupWindow
)

// ErrMissingStream is returned when no websocket endpoint is configured.
var ErrMissingStream = errors.New("stream endpoint is required (ALCHEMY_WSS_URL or --wss-url)")

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	WSSURL        string
	Exchange      string
	Targets       []string
	TelegramToken string
	ChatID        string
	BotName       string
	Mode          model.SourceMode
	ExplorerHost  string
	MetricsAddr   string
	JournalPath   string
	JournalPGDSN  string
	DedupWindow   uint64
	LogLevel      string
}

// envKeys maps config keys to the environment names used by existing
// deployments. Keys not listed fall back to the WATCHER_ prefix.
var envKeys = map[string][]string{
	"wss-url":        {"ALCHEMY_WSS_URL", "WSS_URL"},
	"exchange":       {"CTF_EXCHANGE_ADDRESS"},
	"target":         {"TARGET_WALLETS", "TARGET_WALLET"},
	"telegram-token": {"TELEGRAM_BOT_TOKEN"},
	"chat-id":        {"TELEGRAM_CHAT_ID"},
	"bot-name":       {"BOT_NAME"},
	"mode":           {"WATCH_MODE"},
	"explorer-host":  {"EXPLORER_HOST"},
	"metrics-addr":   {"METRICS_ADDR"},
	"journal-path":   {"JOURNAL_PATH"},
	"journal-pg-dsn": {"JOURNAL_PG_DSN"},
	"dedup-window":   {"DEDUP_WINDOW"},
	"log-level":      {"LOG_LEVEL"},
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile, envFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, envFile, flags)
	if err != nil {
		return Config{}, err
	}

	v.SetDefault("exchange", DefaultExchange)
	v.SetDefault("bot-name", DefaultBotName)
	v.SetDefault("mode", string(model.SourceLogs))
	v.SetDefault("explorer-host", DefaultExplorerHost)
	v.SetDefault("dedup-window", DefaultDedupWindow)
	v.SetDefault("log-level", "info")

	cfg := Config{
		WSSURL:        strings.TrimSpace(v.GetString("wss-url")),
		Exchange:      strings.TrimSpace(v.GetString("exchange")),
		Targets:       getStringSlice(v, "target"),
		TelegramToken: strings.TrimSpace(v.GetString("telegram-token")),
		ChatID:        strings.TrimSpace(v.GetString("chat-id")),
		BotName:       v.GetString("bot-name"),
		Mode:          model.SourceMode(strings.ToLower(strings.TrimSpace(v.GetString("mode")))),
		ExplorerHost:  v.GetString("explorer-host"),
		MetricsAddr:   v.GetString("metrics-addr"),
		JournalPath:   v.GetString("journal-path"),
		JournalPGDSN:  v.GetString("journal-pg-dsn"),
		DedupWindow:   v.GetUint64("dedup-window"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate reports configuration errors that must stop the watcher before it
// subscribes to the chain.
func (c Config) Validate() error {
	if c.WSSURL == "" {
		return ErrMissingStream
	}
	if !common.IsHexAddress(c.Exchange) {
		return fmt.Errorf("invalid exchange address: %s", c.Exchange)
	}
	if _, err := ParseAddresses(c.Targets); err != nil {
		return err
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target wallet is required (TARGET_WALLETS or --target)")
	}
	switch c.Mode {
	case model.SourceLogs:
	case model.SourceTransactions:
		if len(c.Targets) != 1 {
			return fmt.Errorf("transactions mode watches exactly one target wallet, got %d", len(c.Targets))
		}
	default:
		return fmt.Errorf("invalid watch mode %q (logs or transactions)", c.Mode)
	}
	return nil
}

// AlertsEnabled reports whether Telegram credentials are present.
func (c Config) AlertsEnabled() bool {
	return c.TelegramToken != "" && c.ChatID != ""
}

// AlertChatID is the chat alerts and command replies go to, or "" when
// alerts are disabled.
func (c Config) AlertChatID() string {
	if !c.AlertsEnabled() {
		return ""
	}
	return c.ChatID
}

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

func newViper(cfgFile, envFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("WATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, names := range envKeys {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

// loadDotEnv loads envFile, or ./.env when empty. A missing default file is
// not an error; an explicitly named one is. Variables already set win.
func loadDotEnv(envFile string) error {
	if envFile == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

// cleanStrings trims items and drops empties. A single item that itself holds
// a comma list (as an env var read through a slice flag) is split.
func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}
