package activity

import (
	"context"
	"errors"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var _ ports.ActivitySink = Fanout(nil)

// Fanout records every entry in each sink and joins their errors.
type Fanout []ports.ActivitySink

func (f Fanout) Record(ctx context.Context, entry ports.ActivityEntry) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
