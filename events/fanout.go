package events

import (
	"context"
	"errors"
	"storefront/model"
	"storefront/service"
)

// Fanout delivers each event to every notifier and joins their errors.
type Fanout []service.Notifier

func (f Fanout) NotifyOrderPlaced(ctx context.Context, event model.OrderPlacedEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyOrderPlaced(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
