package model

import "time"

// SourceMode identifies the scan strategy that produced an alert.
type SourceMode string

const (
	SourceLogs         SourceMode = "logs"
	SourceTransactions SourceMode = "transactions"
)

// AlertRecord is a matched trade ready for dispatch.
type AlertRecord struct {
	Title          string     `json:"title"`
	Action         ActionType `json:"action"`
	Role           Role       `json:"role"`
	MatchedAddress string     `json:"matched_address"`
	Counterparty   string     `json:"counterparty,omitempty"`
	BlockNumber    uint64     `json:"block_number"`
	TxHash         string     `json:"tx_hash"`
	LogIndex       *uint64    `json:"log_index,omitempty"`
	Source         SourceMode `json:"source"`
	Timestamp      time.Time  `json:"timestamp"`
}

// DisplayAddress truncates the matched address to 0x1234...abcd.
func (a AlertRecord) DisplayAddress() string {
	return ShortAddress(a.MatchedAddress)
}

// ShortAddress truncates an address for display.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
