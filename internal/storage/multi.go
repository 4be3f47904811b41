package storage

import (
	"context"
	"errors"

	"ctfwatch/internal/model"
)

// Multi writes every batch to each of its sinks. All sinks are attempted even
// when one fails.
type Multi []Storage

func (m Multi) PutAlertBatch(ctx context.Context, alerts []model.AlertRecord) error {
	var errs []error
	for _, sink := range m {
		if err := sink.PutAlertBatch(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
