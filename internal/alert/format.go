package alert

import (
	"fmt"
	"html"
	"strings"

	"ctfwatch/internal/model"
)

// DefaultExplorerHost is used for transaction links when none is configured.
const DefaultExplorerHost = "polygonscan.com"

// TxURL builds the explorer link for a transaction hash.
func TxURL(host, txHash string) string {
	if host == "" {
		host = DefaultExplorerHost
	}
	host = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://"), "/")
	return fmt.Sprintf("https://%s/tx/%s", host, txHash)
}

// Format renders an alert as Telegram HTML.
func Format(botName, explorerHost string, record model.AlertRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 <b>%s</b> 🚨\n", html.EscapeString(record.Title))
	fmt.Fprintf(&b, "Source: <b>%s</b>\n\n", html.EscapeString(botName))
	fmt.Fprintf(&b, "Action: <b>%s</b>\n", html.EscapeString(string(record.Action)))
	fmt.Fprintf(&b, "Role: %s\n", record.Role.Label())
	fmt.Fprintf(&b, "Wallet: <code>%s</code>\n", record.DisplayAddress())
	if record.Counterparty != "" {
		fmt.Fprintf(&b, "Counterparty: <code>%s</code>\n", model.ShortAddress(record.Counterparty))
	}
	fmt.Fprintf(&b, "Block: %d\n", record.BlockNumber)
	fmt.Fprintf(&b, "Tx: <a href=\"%s\">View on PolygonScan</a>", TxURL(explorerHost, record.TxHash))
	return b.String()
}

// StartupMessage is announced once when the watcher starts.
func StartupMessage(botName string, mode model.SourceMode, targets int) string {
	return fmt.Sprintf("🚀 <b>%s Started!</b>\nMode: %s\nWatching %d wallets.",
		html.EscapeString(botName), modeLabel(mode), targets)
}

func modeLabel(mode model.SourceMode) string {
	switch mode {
	case model.SourceTransactions:
		return "Transactions (Direct + Proxy)"
	default:
		return "Event Logs (Relayer-Proof)"
	}
}
