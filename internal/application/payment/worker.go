package payment

import (
	"context"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability/logctx"
)

const receiptWorker = "receipt_worker"

// ReceiptWorker turns order events into receipt log lines.
type ReceiptWorker struct {
	subscriber domoutbox.Subscriber

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewReceiptWorker(subscriber domoutbox.Subscriber, tel observability.Observability) *ReceiptWorker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &ReceiptWorker{
		subscriber:   subscriber,
		log:          tel.Logger().With(observability.F("component", receiptWorker)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (w *ReceiptWorker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(domorder.PaymentDeclinedEvent{}.EventName(), w.handlePaymentDeclined)
}

func (w *ReceiptWorker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) error {
	const useCase = "receipt.order_placed"
	start := time.Now()

	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		w.record(useCase, "ignored", start)
		return nil
	}

	logctx.FromOr(ctx, w.log).Info("order_receipt",
		observability.F("session", shortToken(evt.SessionToken)),
		observability.F("order_number", evt.OrderNumber),
		observability.F("items", evt.Items.Names()),
		observability.F("total", evt.Total),
		observability.F("channel", evt.Channel),
		observability.F("reference", evt.Reference),
		observability.F("placed_at", evt.OccurredAt),
	)
	w.record(useCase, "success", start)
	return nil
}

func (w *ReceiptWorker) handlePaymentDeclined(ctx context.Context, e domoutbox.Event) error {
	const useCase = "receipt.payment_declined"
	start := time.Now()

	evt, ok := e.(domorder.PaymentDeclinedEvent)
	if !ok {
		w.record(useCase, "ignored", start)
		return nil
	}

	logctx.FromOr(ctx, w.log).Warn("payment_declined_notice",
		observability.F("session", shortToken(evt.SessionToken)),
		observability.F("reference", evt.Reference),
		observability.F("amount", evt.Amount),
		observability.F("gateway_status", evt.Status),
	)
	w.record(useCase, "success", start)
	return nil
}

func (w *ReceiptWorker) record(useCase, outcome string, start time.Time) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	w.durHistogram.Observe(time.Since(start).Seconds(),
		observability.L("use_case", useCase),
	)
}

// shortToken keeps session tokens out of logs while still letting lines be
// correlated.
func shortToken(tok string) string {
	if len(tok) <= 8 {
		return tok
	}
	return tok[:8]
}
