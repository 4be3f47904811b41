package alert

import (
	"strconv"
	"strings"
	"sync"

	"ctfwatch/internal/model"
)

// DefaultDedupWindow is how many blocks a key is remembered for.
const DefaultDedupWindow uint64 = 512

// Key identifies an alert for deduplication: txHash:logIndex for logs,
// txHash for transactions.
func Key(record model.AlertRecord) string {
	hash := strings.ToLower(record.TxHash)
	if record.LogIndex == nil {
		return hash
	}
	return hash + ":" + strconv.FormatUint(*record.LogIndex, 10)
}

// Deduper remembers dispatched keys for a sliding window of blocks.
type Deduper struct {
	mu      sync.Mutex
	window  uint64
	seen    map[string]uint64
	highest uint64
}

func NewDeduper(window uint64) *Deduper {
	if window == 0 {
		window = DefaultDedupWindow
	}
	return &Deduper{
		window: window,
		seen:   make(map[string]uint64),
	}
}

// Mark records key at block and reports whether it was new.
func (d *Deduper) Mark(key string, block uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = block
	if block > d.highest {
		d.highest = block
		d.prune()
	}
	return true
}

// Len returns the number of remembered keys.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *Deduper) prune() {
	if d.highest <= d.window {
		return
	}
	cutoff := d.highest - d.window
	for key, block := range d.seen {
		if block < cutoff {
			delete(d.seen, key)
		}
	}
}
