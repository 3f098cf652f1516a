package notify

import (
	"context"
	"errors"
	"fmt"
)

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// Target binds a notifier to the channel it should deliver to.
type Target struct {
	Name     string
	Notifier Notifier
	Channel  string
}

// Dispatcher fans one message out to every target.
type Dispatcher struct {
	targets   []Target
	logger    Logger
	onFailure func(target string)
}

func NewDispatcher(logger Logger, targets ...Target) *Dispatcher {
	return &Dispatcher{targets: targets, logger: logger}
}

// OnFailure registers a callback run once per failed target.
func (d *Dispatcher) OnFailure(fn func(target string)) *Dispatcher {
	d.onFailure = fn
	return d
}

// Len returns the number of configured targets.
func (d *Dispatcher) Len() int {
	return len(d.targets)
}

// Dispatch sends message to every target, even after a failure. Each
// failure is logged; the joined error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, message string) error {
	var errs []error
	for _, t := range d.targets {
		if err := t.Notifier.Send(ctx, t.Channel, message); err != nil {
			d.logger.Error("failed to send notification", "target", t.Name, "channel", t.Channel, "error", err)
			if d.onFailure != nil {
				d.onFailure(t.Name)
			}
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		d.logger.Info("notification sent", "target", t.Name, "channel", t.Channel)
	}
	return errors.Join(errs...)
}
