package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ctfwatch/internal/alert"
	"ctfwatch/internal/chain"
	"ctfwatch/internal/config"
	"ctfwatch/internal/contract"
	"ctfwatch/internal/correlate"
	"ctfwatch/internal/metrics"
	"ctfwatch/internal/notify"
	"ctfwatch/internal/registry"
	"ctfwatch/internal/status"
	"ctfwatch/internal/storage"
	"ctfwatch/internal/storage/postgres"
	"ctfwatch/internal/watcher"
)

type notifier interface {
	notify.Sink
	notify.CommandSource
}

// streamClient is the chain connection used by run.
type streamClient interface {
	watcher.Stream
	GetChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// runner wires the watcher. Only configuration errors stop it; a lost chain
// connection or an unreachable Telegram API leaves it serving what it can
// until ctx is done.
type runner struct {
	dialStream  func(ctx context.Context, url string) (streamClient, error)
	newNotifier func(token string, logger *zap.Logger) (notifier, error)
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func newRunner(logger *zap.Logger) *runner {
	return &runner{
		dialStream: func(ctx context.Context, url string) (streamClient, error) {
			client, err := chain.NewClient(ctx, url)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		newNotifier: func(token string, logger *zap.Logger) (notifier, error) {
			tg, err := notify.NewTelegram(token, logger)
			if err != nil {
				return nil, err
			}
			return tg, nil
		},
		metrics: metrics.New(),
		logger:  logger,
	}
}

func runWatcher(cmd *cobra.Command, _ []string) error {
	cfgFile, envFile := configPaths(cmd)
	cfg, err := config.Load(cfgFile, envFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRunner(logger).run(ctx, cfg)
}

func (r *runner) run(ctx context.Context, cfg config.Config) error {
	logger := r.logger
	m := r.metrics

	reg, err := registry.New(cfg.Exchange, cfg.Targets)
	if err != nil {
		return err
	}
	decoder, err := contract.NewDecoder()
	if err != nil {
		return fmt.Errorf("load contract interfaces: %w", err)
	}
	engine := correlate.NewEngine(reg, decoder)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	journal, closeJournal := openJournal(ctx, cfg, logger)
	defer closeJournal()

	sink, chatID := r.openNotifier(cfg)

	state := status.NewState(time.Now())
	dispatcher := alert.NewDispatcher(alert.Config{
		BotName:      cfg.BotName,
		ChatID:       chatID,
		ExplorerHost: cfg.ExplorerHost,
		DedupWindow:  cfg.DedupWindow,
		Sink:         sink,
		Journal:      journal,
		Metrics:      m,
		Logger:       logger,
	})

	reporter := status.NewReporter(status.ReporterConfig{
		BotName:  cfg.BotName,
		ChatID:   chatID,
		State:    state,
		Registry: reg,
		Sink:     sink,
		Logger:   logger,
	})
	commands, err := sink.Commands(ctx)
	if err != nil {
		logger.Warn("command listener unavailable", zap.Error(err))
	} else {
		go reporter.Run(ctx, commands)
	}

	client, err := r.dialStream(ctx, cfg.WSSURL)
	if err != nil {
		r.streamDown(ctx, state, fmt.Errorf("%w: connect: %v", watcher.ErrStreamConnection, err))
		return nil
	}
	defer client.Close()

	strategy, err := watcher.NewStrategy(cfg.Mode, client, engine, m, logger)
	if err != nil {
		return err
	}
	processor := watcher.NewProcessor(strategy, dispatcher, state, m, logger)
	w := watcher.New(client, processor, logger)

	fields := []zap.Field{
		zap.String("mode", string(cfg.Mode)),
		zap.String("exchange", reg.Exchange()),
		zap.Strings("targets", reg.Targets()),
		zap.Bool("alerts", chatID != ""),
		zap.Uint64("dedup_window", cfg.DedupWindow),
	}
	if chainID, err := client.GetChainID(ctx); err != nil {
		logger.Warn("chain id unavailable", zap.Error(err))
	} else {
		fields = append(fields, zap.String("chain_id", chainID.String()))
	}
	logger.Info("watcher start", fields...)
	dispatcher.Announce(ctx, cfg.Mode, reg.Len())

	if err := w.Run(ctx); err != nil {
		r.streamDown(ctx, state, err)
		return nil
	}

	logger.Info("watcher stopped", zap.Uint64("last_block", state.LastBlock()))
	return nil
}

// openNotifier returns the sink and the chat alerts go to. Without working
// Telegram credentials alerts are only logged and the chat id is empty.
func (r *runner) openNotifier(cfg config.Config) (notifier, string) {
	chatID := cfg.AlertChatID()
	if chatID == "" {
		r.logger.Warn("telegram credentials missing, alerts are logged only")
		return notify.Nop{}, ""
	}
	sink, err := r.newNotifier(cfg.TelegramToken, r.logger)
	if err != nil {
		r.metrics.IncError("dispatch")
		r.logger.Warn("telegram unavailable, alerts are logged only", zap.Error(err))
		return notify.Nop{}, ""
	}
	return sink, chatID
}

// streamDown records a lost chain connection and keeps the process up for
// operator commands until ctx is done.
func (r *runner) streamDown(ctx context.Context, state *status.State, err error) {
	r.metrics.IncError("stream")
	r.logger.Error("block stream stopped, still serving commands", zap.Error(err))
	<-ctx.Done()
	r.logger.Info("watcher stopped", zap.Uint64("last_block", state.LastBlock()))
}

// openJournal builds the configured alert journals. A journal that cannot be
// opened is logged and skipped.
func openJournal(ctx context.Context, cfg config.Config, logger *zap.Logger) (alert.Journal, func()) {
	var sinks storage.Multi
	closers := []func(){}

	if cfg.JournalPath != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.JournalPath))
		logger.Info("alert journal enabled", zap.String("path", cfg.JournalPath))
	}
	if cfg.JournalPGDSN != "" {
		store, err := openPostgresJournal(ctx, cfg.JournalPGDSN)
		if err != nil {
			logger.Warn("postgres alert journal disabled", zap.Error(err))
		} else {
			sinks = append(sinks, store)
			closers = append(closers, store.Close)
			logger.Info("postgres alert journal enabled")
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(sinks) == 0 {
		return nil, closeAll
	}
	return sinks, closeAll
}

func openPostgresJournal(ctx context.Context, dsn string) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect journal db: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return store, nil
}
