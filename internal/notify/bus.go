package notify

import (
	"context"

	"github.com/asaskevich/EventBus"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Dispatcher fans events out to subscribed sinks over an in-process event bus.
// It implements Sink itself so publishers stay decoupled from delivery
// channels; sink errors are logged and swallowed.
type Dispatcher struct {
	bus EventBus.Bus
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{bus: EventBus.New()}
}

// Subscribe registers a sink for one event kind.
func (d *Dispatcher) Subscribe(kind Kind, sink Sink) {
	_ = d.bus.Subscribe(string(kind), func(ctx context.Context, ev Event) {
		if err := sink.Notify(ctx, ev); err != nil {
			zap.L().Warn("notification delivery failed",
				zap.String("kind", string(ev.Kind)),
				zap.String("recipient", ev.Recipient),
				zap.Error(err))
		}
	})
}

// SubscribeAll registers a sink for every known event kind.
func (d *Dispatcher) SubscribeAll(sink Sink) {
	for _, kind := range []Kind{KindPaymentSuccess, KindShipped, KindBackInStock} {
		d.Subscribe(kind, sink)
	}
}

// Notify publishes the event to all sinks subscribed to its kind. It never
// returns a delivery error.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) error {
	if payload, err := jsoniter.MarshalToString(ev); err == nil {
		zap.L().Debug("dispatch notification", zap.String("event", payload))
	}
	d.bus.Publish(string(ev.Kind), ctx, ev)
	return nil
}
