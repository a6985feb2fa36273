package workerpresentation

import (
	"context"
	"sort"

	domoutbox "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const eventSpanPrefix = "EVT."

// WithEventContext injects an event-scoped logger for background handlers.
// Dynamic fields only: event_id (generated if empty), trace_id/span_id when
// valid, plus low-cardinality attributes such as the event name.
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	spanCtx trace.SpanContext,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = logctx.FromOr(ctx, observability.NopLogger())
	}

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields := []observability.Field{observability.F("event_id", evtID)}
	if spanCtx.HasTraceID() {
		fields = append(fields, observability.F("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		fields = append(fields, observability.F("span_id", spanCtx.SpanID().String()))
	}

	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, observability.F(k, attrs[k]))
	}

	return logctx.With(ctx, base.With(fields...))
}

// Subscriber wraps event handlers with a span and an event-scoped logger
// before they reach the underlying bus.
type Subscriber struct {
	next domoutbox.Subscriber
	tel  observability.Observability
	log  observability.Logger
}

var _ domoutbox.Subscriber = (*Subscriber)(nil)

func NewSubscriber(next domoutbox.Subscriber, tel observability.Observability) *Subscriber {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Subscriber{
		next: next,
		tel:  tel,
		log:  tel.Logger().With(observability.F("component", "event_worker")),
	}
}

func (s *Subscriber) Subscribe(eventName string, h domoutbox.Handler) {
	s.next.Subscribe(eventName, func(ctx context.Context, e domoutbox.Event) error {
		ctx, span := s.tel.Tracer().Start(ctx, eventSpanPrefix+eventName,
			attribute.String("event.name", eventName),
		)
		defer span.End()

		ctx = WithEventContext(ctx, s.log, span.SpanContext(), map[string]string{
			"event": eventName,
		})

		err := h(ctx, e)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "HANDLER_FAILED")
			return err
		}
		span.SetStatus(codes.Ok, "OK")
		return nil
	})
}
