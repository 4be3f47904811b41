package watcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Watcher feeds every new block from the stream to the processor.
type Watcher struct {
	stream    Stream
	processor *Processor
	logger    *zap.Logger
}

func New(stream Stream, processor *Processor, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{stream: stream, processor: processor, logger: logger}
}

// Run subscribes to new blocks and processes each in its own goroutine, so
// blocks may overlap and finish out of order. It returns nil when ctx is done
// and an ErrStreamConnection error when the subscription fails. The
// subscription is not re-established; in-flight blocks are waited for before
// returning.
func (w *Watcher) Run(ctx context.Context) error {
	blocks := make(chan uint64, 64)
	sub, err := w.stream.SubscribeBlocks(ctx, blocks)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStreamConnection, err)
	}
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	defer wg.Wait()

	w.logger.Info("watching new blocks", zap.String("mode", string(w.processor.strategy.Mode())))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			if err == nil {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrStreamConnection, err)
		case block := <-blocks:
			wg.Add(1)
			go func(block uint64) {
				defer wg.Done()
				w.processor.ProcessBlock(ctx, block)
			}(block)
		}
	}
}
