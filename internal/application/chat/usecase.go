package chat

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/application"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	chatService = "chat-service"
	useCaseChat = "chat.message"
	spanPrefix  = "UC."
)

type ChatInput struct {
	// Token is the client's session cookie value; empty for new clients.
	Token string
	Input string
}

type ChatResult struct {
	Token string
	// Created reports that Token was issued by this request.
	Created bool
	Reply   []string
}

var _ application.UseCase[ChatInput, *ChatResult] = (*ChatUseCase)(nil)

// ChatUseCase resolves the client's session and runs one interpreter step
// under that session's lock.
type ChatUseCase struct {
	sessions    session.Repository
	interpreter *Interpreter
	tel         observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewChatUseCase(sessions session.Repository, interpreter *Interpreter, tel observability.Observability) *ChatUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &ChatUseCase{
		sessions:     sessions,
		interpreter:  interpreter,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", chatService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

func (uc *ChatUseCase) Execute(ctx context.Context, cmd ChatInput) (_ *ChatResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseChat))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"Chat",
		attribute.String("use_case", useCaseChat),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var (
		mode   session.Mode
		parsed Command
	)

	defer func() {
		lat := time.Since(start).Seconds()

		span.SetAttributes(
			attribute.String("chat.command", string(parsed.Kind)),
			attribute.String("session.mode", mode.String()),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseChat),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseChat),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("command", string(parsed.Kind)),
			observability.F("mode", mode.String()),
			observability.F("latency_seconds", lat),
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

	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	sess, created := uc.sessions.Resolve(ctx, cmd.Token)
	if created {
		span.AddEvent("session.created")
	}
	ctx = logctx.With(ctx, logger)
	var reply []string
	sess.Apply(func(st *session.State) {
		parsed, reply = uc.interpreter.interpret(ctx, sess.Token, st, cmd.Input)
		mode = st.Mode()
	})
	if parsed.Kind == KindInvalid {
		statusText = "INVALID_INPUT"
	}

	return &ChatResult{Token: sess.Token, Created: created, Reply: reply}, nil
}
