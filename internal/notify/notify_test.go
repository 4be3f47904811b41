package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNopCommandsCloseWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Nop{}.Commands(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("command channel did not close")
	}
	require.NoError(t, Nop{}.Send(context.Background(), "1", "hello"))
}
