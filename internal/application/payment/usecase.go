package payment

import (
	"context"
	"errors"
	"time"

	dompay "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService        = "payment-service"
	useCasePaymentConfirm = "payment.confirm"
	confirmSpanName       = "ConfirmPayment"
	spanPrefix            = "UC."
)

var ErrReferenceRequired = errors.New("payment: reference is required")

// Reconciler verifies a reference with the gateway and applies the verdict.
type Reconciler interface {
	Reconcile(ctx context.Context, reference string) (Outcome, error)
}

// OutcomeStore keeps settled outcomes for a while so that a repeated callback
// for the same reference gets the same answer.
type OutcomeStore interface {
	Remember(ctx context.Context, reference string, out Outcome)
	Recall(ctx context.Context, reference string) (Outcome, bool)
}

type ConfirmPaymentInput struct {
	Reference string
}

// ConfirmPaymentUseCase handles the gateway callback for a pending checkout.
type ConfirmPaymentUseCase struct {
	reconciler Reconciler
	settled    OutcomeStore
	tel        observability.Observability
	log        observability.Logger
	reqCounter observability.Counter   // usecase_requests_total{use_case,outcome}
	durHist    observability.Histogram // usecase_duration_seconds{use_case}
}

// settled may be nil, in which case every callback goes to the reconciler.
func NewConfirmPaymentUseCase(reconciler Reconciler, settled OutcomeStore, tel observability.Observability) *ConfirmPaymentUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &ConfirmPaymentUseCase{
		reconciler: reconciler,
		settled:    settled,
		tel:        tel,
		log:        tel.Logger().With(observability.F("service", paymentService)),
		reqCounter: metrics.Counter(observability.MUsecaseRequests),
		durHist:    metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Execute reconciles the reference. Declined and still-pending payments are
// not errors: they are reported through Outcome.Status. Only settled outcomes
// are remembered for replay.
func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cmd ConfirmPaymentInput) (_ *Outcome, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCasePaymentConfirm),
		observability.F("reference", cmd.Reference),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+confirmSpanName,
		attribute.String("use_case", useCasePaymentConfirm),
		attribute.String("payment.reference", cmd.Reference),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	result := &Outcome{Status: OutcomeError, Reference: cmd.Reference}

	defer func() {
		span.SetAttributes(attribute.String("payment.outcome", string(result.Status)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		latency := time.Since(start).Seconds()
		uc.reqCounter.Add(1,
			observability.L("use_case", useCasePaymentConfirm),
			observability.L("outcome", outcome),
		)
		uc.durHist.Observe(latency,
			observability.L("use_case", useCasePaymentConfirm),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("payment_outcome", string(result.Status)),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.Reference == "" {
		outcome, statusText = "error", "REFERENCE_REQUIRED"
		return result, ErrReferenceRequired
	}

	if uc.settled != nil {
		if prev, ok := uc.settled.Recall(ctx, cmd.Reference); ok {
			*result = prev
			statusText = "REPLAY"
			span.AddEvent("payment.replay")
			return result, nil
		}
	}

	res, err := uc.reconciler.Reconcile(ctx, cmd.Reference)
	*result = res
	switch {
	case errors.Is(err, session.ErrNotFound):
		outcome, statusText = "error", "REFERENCE_NOT_FOUND"
		return result, err
	case errors.Is(err, dompay.ErrNotConfigured):
		outcome, statusText = "error", "GATEWAY_NOT_CONFIGURED"
		return result, err
	case err != nil:
		outcome, statusText = "error", "GATEWAY_FAILED"
		return result, err
	}

	switch result.Status {
	case OutcomeDeclined:
		statusText = "DECLINED"
	case OutcomePending:
		// not settled: the next callback must ask the gateway again
		statusText = "PENDING"
		return result, nil
	}
	if uc.settled != nil {
		uc.settled.Remember(ctx, cmd.Reference, *result)
	}
	return result, nil
}
