package notify

import "context"

// Sink delivers HTML formatted text to a chat.
type Sink interface {
	Send(ctx context.Context, chatID string, text string) error
}

// Command is an inbound message from the notification channel.
type Command struct {
	OriginID string
	Text     string
}

// CommandSource streams inbound commands until ctx is done.
type CommandSource interface {
	Commands(ctx context.Context) (<-chan Command, error)
}

// Nop drops every message. It stands in when no credentials are configured.
type Nop struct{}

func (Nop) Send(context.Context, string, string) error {
	return nil
}

// Commands returns a channel that closes with ctx.
func (Nop) Commands(ctx context.Context) (<-chan Command, error) {
	ch := make(chan Command)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
