package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ctfwatch/internal/metrics"
	"ctfwatch/internal/status"
)

const progressEvery = 10

// Processor runs a single block through fetch, scan and dispatch.
type Processor struct {
	strategy   Strategy
	dispatcher Dispatcher
	state      *status.State
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewProcessor(strategy Strategy, dispatcher Dispatcher, state *status.State, m *metrics.Metrics, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		strategy:   strategy,
		dispatcher: dispatcher,
		state:      state,
		metrics:    m,
		logger:     logger,
	}
}

// ProcessBlock never fails: fetch and dispatch errors are logged, and the
// block is recorded as processed either way. Failed blocks are not retried.
func (p *Processor) ProcessBlock(ctx context.Context, block uint64) {
	started := time.Now()
	defer func() {
		p.state.Advance(block)
		p.metrics.SetLastBlock(p.state.LastBlock())
		p.metrics.ObserveBlock(started)
	}()

	if block%progressEvery == 0 {
		p.logger.Info("block mined", zap.Uint64("block", block))
	}

	alerts, err := p.strategy.Scan(ctx, block)
	if err != nil {
		p.metrics.IncError(errorKind(err))
		p.logger.Error("block scan failed", zap.Uint64("block", block), zap.Error(err))
		return
	}

	for _, record := range alerts {
		p.metrics.IncMatch(string(record.Action))
		if _, err := p.dispatcher.Dispatch(ctx, record); err != nil {
			p.logger.Warn("alert not delivered",
				zap.Uint64("block", block),
				zap.String("tx", record.TxHash),
				zap.Error(err),
			)
		}
	}
}
