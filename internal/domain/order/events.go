package order

import "time"

// Checkout channels.
const (
	ChannelDirect   = "direct"
	ChannelPaystack = "paystack"
)

// OrderPlacedEvent is emitted when a checkout completes and the cart becomes
// part of the session's order history.
type OrderPlacedEvent struct {
	SessionToken string
	OrderNumber  int
	Items        Items
	Total        int64
	Channel      string
	Reference    string
	OccurredAt   time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(token string, number int, items Items, channel, reference string) OrderPlacedEvent {
	return OrderPlacedEvent{
		SessionToken: token,
		OrderNumber:  number,
		Items:        items.Clone(),
		Total:        items.Total(),
		Channel:      channel,
		Reference:    reference,
		OccurredAt:   time.Now().UTC(),
	}
}

// PaymentDeclinedEvent is emitted when the gateway reports a non-successful
// transaction for a pending checkout.
type PaymentDeclinedEvent struct {
	SessionToken string
	Reference    string
	Amount       int64
	Status       string
	OccurredAt   time.Time
}

func (PaymentDeclinedEvent) EventName() string { return "order.payment_declined" }

func NewPaymentDeclinedEvent(token, reference string, amount int64, status string) PaymentDeclinedEvent {
	return PaymentDeclinedEvent{
		SessionToken: token,
		Reference:    reference,
		Amount:       amount,
		Status:       status,
		OccurredAt:   time.Now().UTC(),
	}
}
