package payment

import (
	"context"

	domorder "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability/logctx"
)

// Checkout describes what happened when a cart was checked out.
type Checkout struct {
	// Finalized is true when the order went straight into the history.
	Finalized   bool
	OrderNumber int
	Total       int64
	// PaymentURL and Reference are set when the order waits for an external payment.
	PaymentURL string
	Reference  string
}

// IDGenerator issues payment references.
type IDGenerator interface {
	NewID() string
}

// ImmediateCheckout finalises orders on checkout, without any payment step.
type ImmediateCheckout struct {
	publisher domoutbox.Publisher
	log       observability.Logger
	placed    observability.Counter
}

func NewImmediateCheckout(publisher domoutbox.Publisher, tel observability.Observability) *ImmediateCheckout {
	if tel == nil {
		tel = observability.Nop()
	}
	return &ImmediateCheckout{
		publisher: publisher,
		log:       tel.Logger().With(observability.F("component", "immediate_checkout")),
		placed:    tel.Metrics().Counter(observability.MOrdersPlaced),
	}
}

func (c *ImmediateCheckout) Checkout(ctx context.Context, token string, st *session.State, total int64) (Checkout, error) {
	items := st.CurrentOrder
	n := st.Place(items)
	st.CurrentOrder = nil

	c.placed.Add(1, observability.L("channel", domorder.ChannelDirect))
	publish(ctx, c.publisher, logctx.FromOr(ctx, c.log), domorder.NewOrderPlacedEvent(token, n, items, domorder.ChannelDirect, ""))

	return Checkout{Finalized: true, OrderNumber: n, Total: total}, nil
}

func publish(ctx context.Context, publisher domoutbox.Publisher, logger observability.Logger, e domoutbox.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, e); err != nil {
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err),
		)
	}
}
