package watcher

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"ctfwatch/internal/model"
)

// LogFetcher returns the logs a contract emitted in one block.
type LogFetcher interface {
	LogsInBlock(ctx context.Context, block uint64, address common.Address) ([]model.LogRecord, error)
}

// TransactionFetcher returns every transaction of one block.
type TransactionFetcher interface {
	BlockTransactions(ctx context.Context, block uint64) ([]model.Transaction, error)
}

// Stream is the chain connection the watcher consumes.
type Stream interface {
	LogFetcher
	TransactionFetcher
	SubscribeBlocks(ctx context.Context, blocks chan<- uint64) (ethereum.Subscription, error)
}

// Dispatcher delivers a matched alert. It reports whether the alert was new.
type Dispatcher interface {
	Dispatch(ctx context.Context, record model.AlertRecord) (bool, error)
}
