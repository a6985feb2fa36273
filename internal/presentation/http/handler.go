package httppresentation

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/application"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/application/chat"
	appPayment "github.com/Zhima-Mochi/minishop-chatbot/internal/application/payment"
	domainPayment "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/payment"
	domainSession "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type (
	ChatUseCase           = application.UseCase[chat.ChatInput, *chat.ChatResult]
	ConfirmPaymentUseCase = application.UseCase[appPayment.ConfirmPaymentInput, *appPayment.Outcome]
)

type Config struct {
	CookieName   string
	CookieSecure bool
}

type Handler struct {
	chat    ChatUseCase
	confirm ConfirmPaymentUseCase
	cfg     Config
	log     observability.Logger
	tel     observability.Observability

	httpRequests observability.Counter   // http_requests_total{method,route,status}
	httpDuration observability.Histogram // http_request_duration_seconds{method,route,status}
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	defaultCookieName    = "sessionId"
	maxChatBody          = 64 << 10

	// seconds before the browser retries a callback that is still pending
	pendingRefreshSeconds = "5"

	routeIndex    = "GET /"
	routeChat     = "POST /chat"
	routeCallback = "GET " + appPayment.CallbackPath
	routeHealth   = "GET /health"
)

func NewHandler(chatUC ChatUseCase, confirmUC ConfirmPaymentUseCase, cfg Config, logger observability.Logger,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	return &Handler{
		chat:         chatUC,
		confirm:      confirmUC,
		cfg:          cfg,
		log:          baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:          tel,
		httpRequests: tel.Metrics().Counter(observability.MHTTPRequests),
		httpDuration: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Trace → ObservabilityMiddleware (request logger) → Access log → HTTP metrics → Handler
	h.muxHandle(mux, http.MethodGet, "/", routeIndex, h.handleIndex)
	h.muxHandle(mux, http.MethodPost, "/chat", routeChat, h.handleChat)
	h.muxHandle(mux, http.MethodGet, appPayment.CallbackPath, routeCallback, h.handlePaystackCallback)
	h.muxHandle(mux, http.MethodGet, "/health", routeHealth, h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, pattern, route string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if pattern == "/" && r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != method {
			w.Header().Set("Allow", method)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Store stable route template for low-cardinality labels
		ctx := contextWithRoute(r.Context(), route)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
				h.sessionToken,
				h.tel,
			)(
				h.withAccessLog(
					h.withHTTPMetrics(handler),
				),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

func (h *Handler) sessionToken(r *http.Request) string {
	c, err := r.Cookie(h.cfg.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

type indexPage struct {
	Title    string
	ChatPath string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pages.ExecuteTemplate(w, "index.html", indexPage{
		Title:    "Dummy Restaurant Bot",
		ChatPath: "/chat",
	})
	if err != nil {
		logctx.FromOr(r.Context(), h.log).Error("template_render_failed", observability.F("error", err))
	}
}

type chatRequest struct {
	Input *string `json:"input"`
}

type chatResponse struct {
	Reply []string `json:"reply"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	var req chatRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	input := ""
	if req.Input != nil {
		input = *req.Input
	}

	result, err := h.chat.Execute(r.Context(), chat.ChatInput{
		Token: h.sessionToken(r),
		Input: input,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if result.Created {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.CookieName,
			Value:    result.Token,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: result.Reply})
}

type paymentCompletePage struct {
	OrderNumber int
	RedirectTo  string
}

func (h *Handler) handlePaystackCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := firstNonEmpty(q.Get("ref"), q.Get("reference"), q.Get("trxref"))

	out, err := h.confirm.Execute(r.Context(), appPayment.ConfirmPaymentInput{Reference: ref})
	switch {
	case errors.Is(err, appPayment.ErrReferenceRequired):
		writeText(w, http.StatusBadRequest, "Missing payment reference.")
		return
	case errors.Is(err, domainSession.ErrNotFound):
		writeText(w, http.StatusNotFound, "Unknown or already processed payment reference.")
		return
	case err != nil:
		writeText(w, http.StatusBadGateway, "Could not verify the payment. Please try again later.")
		return
	case out != nil && out.Status == appPayment.OutcomePending:
		w.Header().Set("Refresh", pendingRefreshSeconds)
		writeText(w, http.StatusAccepted, "Your payment is still being processed. This page will reload shortly.")
		return
	case out == nil || out.Status != appPayment.OutcomeConfirmed:
		writeText(w, http.StatusPaymentRequired, "Payment was not successful. Your order is still in the chat; type 99 to try again.")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = pages.ExecuteTemplate(w, "payment_complete.html", paymentCompletePage{
		OrderNumber: out.OrderNumber,
		RedirectTo:  "/",
	})
	if err != nil {
		logctx.FromOr(r.Context(), h.log).Error("template_render_failed", observability.F("error", err))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("minishop.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		routeTemplate := route
		if idx := strings.Index(routeTemplate, " "); idx >= 0 {
			routeTemplate = routeTemplate[idx+1:]
		}
		if routeTemplate == "unknown" || routeTemplate == "" {
			routeTemplate = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routeTemplate),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.httpRequests.Add(1, labels...)
		h.httpDuration.Observe(time.Since(start).Seconds(), labels...)
	})
}

func decodeJSON(ctx context.Context, r *http.Request, dst any) error {
	_ = ctx
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, domainPayment.ErrGateway):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
