package watcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ctfwatch/internal/contract"
	"ctfwatch/internal/correlate"
	"ctfwatch/internal/metrics"
	"ctfwatch/internal/model"
)

// Strategy fetches one block's items and turns the matching ones into alerts.
type Strategy interface {
	Mode() model.SourceMode
	Scan(ctx context.Context, block uint64) ([]model.AlertRecord, error)
}

// NewStrategy picks the strategy for mode.
func NewStrategy(mode model.SourceMode, stream Stream, engine *correlate.Engine, m *metrics.Metrics, logger *zap.Logger) (Strategy, error) {
	switch mode {
	case model.SourceLogs:
		return NewLogScanStrategy(stream, engine, m, logger), nil
	case model.SourceTransactions:
		if _, ok := engine.Registry().Primary(); !ok {
			return nil, fmt.Errorf("transaction mode requires a target wallet")
		}
		return NewTransactionScanStrategy(stream, engine, m, logger), nil
	default:
		return nil, fmt.Errorf("unknown watch mode %q", mode)
	}
}

// LogScanStrategy scans the exchange's event logs. Participants are only
// known after decoding, so a log that fails to decode never alerts.
type LogScanStrategy struct {
	fetcher LogFetcher
	engine  *correlate.Engine
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewLogScanStrategy(fetcher LogFetcher, engine *correlate.Engine, m *metrics.Metrics, logger *zap.Logger) *LogScanStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogScanStrategy{fetcher: fetcher, engine: engine, metrics: m, logger: logger}
}

func (s *LogScanStrategy) Mode() model.SourceMode {
	return model.SourceLogs
}

func (s *LogScanStrategy) Scan(ctx context.Context, block uint64) ([]model.AlertRecord, error) {
	logs, err := s.fetcher.LogsInBlock(ctx, block, s.engine.Registry().ExchangeAddress())
	if err != nil {
		return nil, fmt.Errorf("%w %d: %v", ErrFetch, block, err)
	}
	s.metrics.AddScanned(string(model.SourceLogs), len(logs))

	var alerts []model.AlertRecord
	for _, log := range logs {
		if log.Removed || !s.engine.PrefilterLog(log) {
			continue
		}
		match, decoded := s.engine.MatchLog(log)
		if decoded.Outcome == contract.Malformed {
			s.metrics.IncError("decode")
			s.logger.Debug("undecodable exchange log",
				zap.Uint64("block", block),
				zap.String("tx", log.TxHash),
				zap.Uint64("log_index", log.LogIndex),
				zap.Error(fmt.Errorf("%w: %v", ErrDecode, decoded.Err)),
			)
			continue
		}
		if !match.Matched {
			continue
		}
		alerts = append(alerts, s.engine.LogAlert(log, match))
	}
	return alerts, nil
}

// TransactionScanStrategy scans every transaction of a block for the primary
// target as sender or recipient.
type TransactionScanStrategy struct {
	fetcher TransactionFetcher
	engine  *correlate.Engine
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewTransactionScanStrategy(fetcher TransactionFetcher, engine *correlate.Engine, m *metrics.Metrics, logger *zap.Logger) *TransactionScanStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionScanStrategy{fetcher: fetcher, engine: engine, metrics: m, logger: logger}
}

func (s *TransactionScanStrategy) Mode() model.SourceMode {
	return model.SourceTransactions
}

func (s *TransactionScanStrategy) Scan(ctx context.Context, block uint64) ([]model.AlertRecord, error) {
	txs, err := s.fetcher.BlockTransactions(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("%w %d: %v", ErrFetch, block, err)
	}
	s.metrics.AddScanned(string(model.SourceTransactions), len(txs))

	var alerts []model.AlertRecord
	for _, tx := range txs {
		if !s.engine.PrefilterTransaction(tx) {
			continue
		}
		match, decoded := s.engine.MatchTransaction(tx)
		if !match.Matched {
			continue
		}
		if decoded.Outcome == contract.Malformed {
			s.logger.Debug("calldata did not decode",
				zap.String("tx", tx.Hash),
				zap.Error(fmt.Errorf("%w: %v", ErrDecode, decoded.Err)),
			)
		}
		alerts = append(alerts, s.engine.TransactionAlert(tx, match))
	}
	return alerts, nil
}
