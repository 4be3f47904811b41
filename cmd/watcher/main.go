package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ctfwatch/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "watcher",
		Short:        "Polymarket CTF exchange wallet watcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", "", "dotenv file to load (default ./.env when present)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Watch new blocks and alert on target wallet trades",
		RunE:  runWatcher,
	}

	runCmd.Flags().String("wss-url", "", "websocket RPC URL (ALCHEMY_WSS_URL)")
	runCmd.Flags().String("exchange", config.DefaultExchange, "CTF exchange contract address")
	runCmd.Flags().StringSlice("target", nil, "target wallet addresses (comma-separated)")
	runCmd.Flags().String("telegram-token", "", "Telegram bot token")
	runCmd.Flags().String("chat-id", "", "Telegram chat id for alerts and commands")
	runCmd.Flags().String("bot-name", config.DefaultBotName, "name shown in alerts")
	runCmd.Flags().String("mode", "logs", "watch mode (logs, transactions)")
	runCmd.Flags().String("explorer-host", config.DefaultExplorerHost, "block explorer host for tx links")
	runCmd.Flags().String("metrics-addr", "", "Prometheus listen address, empty disables")
	runCmd.Flags().String("journal-path", "", "JSONL alert journal path, empty disables")
	runCmd.Flags().String("journal-pg-dsn", "", "Postgres DSN for the alert journal, empty disables")
	runCmd.Flags().Uint64("dedup-window", config.DefaultDedupWindow, "blocks an alert key is remembered for")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	chatIDCmd := &cobra.Command{
		Use:   "chat-id",
		Short: "Print the chat id of the first message sent to the bot",
		RunE:  runChatID,
	}

	chatIDCmd.Flags().String("telegram-token", "", "Telegram bot token")
	chatIDCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(chatIDCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func configPaths(cmd *cobra.Command) (string, string) {
	cfgFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	return cfgFile, envFile
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
