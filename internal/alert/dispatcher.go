package alert

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ctfwatch/internal/metrics"
	"ctfwatch/internal/model"
	"ctfwatch/internal/notify"
)

// ErrDispatch marks a failed delivery to the notification sink.
var ErrDispatch = errors.New("dispatch alert")

// Journal stores dispatched alerts. It is write-only.
type Journal interface {
	PutAlertBatch(ctx context.Context, alerts []model.AlertRecord) error
}

// Config holds Dispatcher dependencies.
type Config struct {
	BotName      string
	ChatID       string
	ExplorerHost string
	DedupWindow  uint64
	Sink         notify.Sink
	Journal      Journal
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// Dispatcher formats, deduplicates and delivers alerts. Delivery is best
// effort: a failed send is logged and dropped.
type Dispatcher struct {
	botName      string
	chatID       string
	explorerHost string
	sink         notify.Sink
	journal      Journal
	dedup        *Deduper
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = notify.Nop{}
	}
	host := cfg.ExplorerHost
	if host == "" {
		host = DefaultExplorerHost
	}
	return &Dispatcher{
		botName:      cfg.BotName,
		chatID:       cfg.ChatID,
		explorerHost: host,
		sink:         sink,
		journal:      cfg.Journal,
		dedup:        NewDeduper(cfg.DedupWindow),
		metrics:      cfg.Metrics,
		logger:       logger,
	}
}

// Dispatch delivers record unless its key was already dispatched. It reports
// whether the alert was new; a non-nil error wraps ErrDispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, record model.AlertRecord) (bool, error) {
	key := Key(record)
	if !d.dedup.Mark(key, record.BlockNumber) {
		d.metrics.IncDuplicate()
		d.logger.Debug("duplicate alert dropped", zap.String("key", key))
		return false, nil
	}

	d.logger.Info("trade detected",
		zap.String("action", string(record.Action)),
		zap.String("role", record.Role.Label()),
		zap.String("wallet", record.MatchedAddress),
		zap.String("counterparty", record.Counterparty),
		zap.Uint64("block", record.BlockNumber),
		zap.String("tx", record.TxHash),
	)

	if d.journal != nil {
		if err := d.journal.PutAlertBatch(ctx, []model.AlertRecord{record}); err != nil {
			d.logger.Warn("journal alert failed", zap.String("key", key), zap.Error(err))
		}
	}

	if d.chatID == "" {
		return true, nil
	}
	if err := d.sink.Send(ctx, d.chatID, Format(d.botName, d.explorerHost, record)); err != nil {
		d.metrics.IncError("dispatch")
		return true, fmt.Errorf("%w %s: %v", ErrDispatch, key, err)
	}
	d.metrics.IncAlertSent()
	return true, nil
}

// Announce sends the startup message. Failures are logged only.
func (d *Dispatcher) Announce(ctx context.Context, mode model.SourceMode, targets int) {
	if d.chatID == "" {
		return
	}
	if err := d.sink.Send(ctx, d.chatID, StartupMessage(d.botName, mode, targets)); err != nil {
		d.logger.Warn("startup announcement failed", zap.Error(err))
	}
}
