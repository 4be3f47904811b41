package storage

import (
	"context"

	"ctfwatch/internal/model"
)

// Storage defines a write-only sink for dispatched alerts.
type Storage interface {
	PutAlertBatch(ctx context.Context, alerts []model.AlertRecord) error
}
