package status

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"ctfwatch/internal/notify"
	"ctfwatch/internal/registry"
)

// Reporter answers operator commands from the authorized chat.
type Reporter struct {
	botName  string
	chatID   string
	state    *State
	registry *registry.Registry
	sink     notify.Sink
	logger   *zap.Logger
	now      func() time.Time
}

// ReporterConfig holds Reporter dependencies.
type ReporterConfig struct {
	BotName  string
	ChatID   string
	State    *State
	Registry *registry.Registry
	Sink     notify.Sink
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewReporter(cfg ReporterConfig) *Reporter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Reporter{
		botName:  cfg.BotName,
		chatID:   cfg.ChatID,
		state:    cfg.State,
		registry: cfg.Registry,
		sink:     cfg.Sink,
		logger:   logger,
		now:      now,
	}
}

// Run handles commands until the channel closes or ctx is done.
func (r *Reporter) Run(ctx context.Context, commands <-chan notify.Command) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			r.Handle(ctx, cmd)
		}
	}
}

// Handle answers a single command. Commands from any chat other than the
// configured one are ignored. It reports whether a reply was attempted.
func (r *Reporter) Handle(ctx context.Context, cmd notify.Command) bool {
	if r.chatID == "" || cmd.OriginID != r.chatID {
		return false
	}

	var reply string
	switch parseCommand(cmd.Text) {
	case "status":
		reply = r.statusText()
	case "ping":
		reply = fmt.Sprintf("🏓 Pong! (%s)", html.EscapeString(r.botName))
	case "targets":
		reply = r.targetsText()
	default:
		return false
	}

	if err := r.sink.Send(ctx, r.chatID, reply); err != nil {
		r.logger.Warn("command reply failed", zap.String("command", cmd.Text), zap.Error(err))
	}
	return true
}

func (r *Reporter) statusText() string {
	uptime := r.state.Uptime(r.now())
	return fmt.Sprintf("🤖 <b>%s Status</b>\n\n"+
		"✅ Running: Yes\n"+
		"⏱ Uptime: %d min\n"+
		"📦 Last Block: %d\n"+
		"🎯 Targets: %d",
		html.EscapeString(r.botName),
		int64(uptime/time.Minute),
		r.state.LastBlock(),
		r.registry.Len(),
	)
}

func (r *Reporter) targetsText() string {
	return "🎯 <b>Monitored Wallets:</b>\n\n" + strings.Join(r.registry.Targets(), "\n")
}

// parseCommand extracts "status" from "/status", "/status@bot" or "/status extra".
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	head := fields[0]
	if !strings.HasPrefix(head, "/") {
		return ""
	}
	head = strings.TrimPrefix(head, "/")
	if i := strings.IndexByte(head, '@'); i >= 0 {
		head = head[:i]
	}
	return strings.ToLower(head)
}
