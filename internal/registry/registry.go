package registry

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultExchangeAddress is the Polymarket CTF exchange on Polygon.
const DefaultExchangeAddress = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"

// Registry holds the normalized target wallets and the exchange address.
// It is immutable after construction and safe for concurrent reads.
type Registry struct {
	exchange string
	targets  []string
	index    map[string]struct{}
}

// New validates and normalizes targets and the exchange address.
// Duplicate targets keep their first position.
func New(exchange string, targets []string) (*Registry, error) {
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		exchange = DefaultExchangeAddress
	}
	if !common.IsHexAddress(exchange) {
		return nil, fmt.Errorf("invalid exchange address: %s", exchange)
	}

	r := &Registry{
		exchange: Normalize(exchange),
		targets:  make([]string, 0, len(targets)),
		index:    make(map[string]struct{}, len(targets)),
	}
	for _, input := range targets {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid target address: %s", input)
		}
		addr := Normalize(input)
		if _, ok := r.index[addr]; ok {
			continue
		}
		r.index[addr] = struct{}{}
		r.targets = append(r.targets, addr)
	}
	return r, nil
}

// Normalize lower-cases an address and restores the 0x prefix when missing.
func Normalize(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return ""
	}
	if !strings.HasPrefix(addr, "0x") {
		addr = "0x" + addr
	}
	return addr
}

// Exchange returns the normalized exchange address.
func (r *Registry) Exchange() string {
	return r.exchange
}

// ExchangeAddress returns the exchange as a go-ethereum address.
func (r *Registry) ExchangeAddress() common.Address {
	return common.HexToAddress(r.exchange)
}

// IsExchange reports whether addr is the exchange contract.
func (r *Registry) IsExchange(addr string) bool {
	return addr != "" && Normalize(addr) == r.exchange
}

// Contains reports whether addr is a target, ignoring case.
func (r *Registry) Contains(addr string) bool {
	if addr == "" {
		return false
	}
	_, ok := r.index[Normalize(addr)]
	return ok
}

// ContainsAny reports whether any of addrs is a target.
func (r *Registry) ContainsAny(addrs []string) bool {
	for _, addr := range addrs {
		if r.Contains(addr) {
			return true
		}
	}
	return false
}

// Targets returns a copy of the targets in input order.
func (r *Registry) Targets() []string {
	out := make([]string, len(r.targets))
	copy(out, r.targets)
	return out
}

// Primary returns the first configured target.
func (r *Registry) Primary() (string, bool) {
	if len(r.targets) == 0 {
		return "", false
	}
	return r.targets[0], true
}

// Len returns the number of distinct targets.
func (r *Registry) Len() int {
	return len(r.targets)
}
