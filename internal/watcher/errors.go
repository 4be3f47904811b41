package watcher

import (
	"errors"

	"ctfwatch/internal/alert"
)

// Error kinds surfaced by the watcher. They are matched with errors.Is and
// only ever reach the log.
var (
	ErrStreamConnection = errors.New("stream connection")
	ErrFetch            = errors.New("fetch block")
	ErrDecode           = errors.New("decode item")
	ErrDispatch         = alert.ErrDispatch
)

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrStreamConnection):
		return "stream"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrDispatch):
		return "dispatch"
	default:
		return "other"
	}
}
