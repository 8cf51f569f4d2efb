package notify

import (
	"context"
	"errors"

	"sempgateway/internal/models"
	"sempgateway/internal/registry"
)

// Multi notifies every notifier in order and joins their errors.
type Multi []registry.Notifier

func (m Multi) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, models.Notification) error { return nil }
