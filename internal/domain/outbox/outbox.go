package outbox

import "context"

// Event is a fact about a session that happened after its lock was released,
// such as order.placed or order.payment_declined.
type Event interface {
	EventName() string
}

// Handler reacts to one event. Handlers run off the request path; an error is
// logged by the bus and never reaches the customer.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers by EventName. Several handlers may share a name.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
