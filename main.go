package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/application/chat"
	appPayment "github.com/Zhima-Mochi/minishop-chatbot/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/menu"
	domainPayment "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/config"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/paystack"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-chatbot/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-chatbot/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var envFiles []string

func rootCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the catalog the bot offers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, it := range menu.Default().Items() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", it.Key(), it.Name, it.Price); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:           "minishop-chatbot",
		Short:         "Restaurant ordering chatbot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	cmd.AddCommand(serveCmd, menuCmd)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tel := newTelemetry(cfg.ServiceName, baseLogger, registry)

	sessions := memory.NewSessionRepository(id.NewUUIDGenerator())
	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "chat_sessions",
		Help: "Number of chat sessions held in memory.",
	}, func() float64 {
		return float64(sessions.Len(context.Background()))
	}))

	// In-memory event bus; order events feed the receipt worker.
	bus := outbox.NewBus(tel.Logger())
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	receipts := appPayment.NewReceiptWorker(workerpresentation.NewSubscriber(bus, tel), tel)
	receipts.Start()

	settled := memory.NewTTLCache[appPayment.Outcome](cfg.Payment.ReplayTTL)

	var (
		checkout chat.Checkouter
		confirm  *appPayment.ConfirmPaymentUseCase
	)
	switch cfg.Payment.Mode {
	case config.PaymentModeNone:
		checkout = appPayment.NewImmediateCheckout(bus, tel)
		confirm = appPayment.NewConfirmPaymentUseCase(appPayment.NewCorrelator(
			sessions, appPayment.UnavailableGateway{}, id.NewReferenceGenerator("chat-"), bus,
			appPayment.CorrelatorConfig{}, tel,
		), settled, tel)
	default:
		correlator := appPayment.NewCorrelator(
			sessions,
			newGateway(cfg, tel, systemLogger),
			id.NewReferenceGenerator("chat-"),
			bus,
			appPayment.CorrelatorConfig{
				CallbackBaseURL: cfg.Payment.CallbackBaseURL,
				CustomerEmail:   cfg.Payment.CustomerEmail,
				Timeout:         cfg.Payment.Timeout,
			},
			tel,
		)
		checkout = correlator
		confirm = appPayment.NewConfirmPaymentUseCase(correlator, settled, tel)
	}

	interpreter := chat.NewInterpreter(menu.Default(), checkout, sessions, tel.Logger())
	chatUseCase := chat.NewChatUseCase(sessions, interpreter, tel)

	handler := httppresentation.NewHandler(chatUseCase, confirm, httppresentation.Config{
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
	}, tel.Logger(), tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mux,
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("payment_mode", string(cfg.Payment.Mode)),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
		return err
	}
	systemLogger.Info("http_server_stopped")
	return nil
}

// newTelemetry registers every metric the application reports and bundles
// them with the tracer and logger.
func newTelemetry(service string, base *zap.Logger, registry prometheus.Registerer) observability.Observability {
	metrics := prometrics.New("", "", registry)

	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: metrics.Counter(string(observability.MUsecaseRequests),
			"Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests: metrics.Counter(string(observability.MHTTPRequests),
			"Total number of HTTP requests.", "method", "route", "status"),
		observability.MExternalRequests: metrics.Counter(string(observability.MExternalRequests),
			"Total number of calls to external services.", "peer", "endpoint", "outcome"),
		observability.MOrdersPlaced: metrics.Counter(string(observability.MOrdersPlaced),
			"Orders moved into a session's history.", "channel"),
		observability.MPaymentConfirmations: metrics.Counter(string(observability.MPaymentConfirmations),
			"Gateway verdicts applied to pending checkouts.", "outcome"),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: metrics.Histogram(string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.", prometheus.DefBuckets, "use_case"),
		observability.MHTTPRequestDuration: metrics.Histogram(string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.", prometheus.DefBuckets, "method", "route", "status"),
		observability.MExternalRequestDuration: metrics.Histogram(string(observability.MExternalRequestDuration),
			"Duration of external calls in seconds.", prometheus.DefBuckets, "peer", "endpoint"),
	}

	return infraobs.New(
		oteltrace.New(service),
		zaplogger.Wrap(base),
		counters,
		histograms,
	)
}

// newGateway returns the Paystack client, or nil when credentials are missing
// so that checkouts fail gracefully instead of the process refusing to start.
func newGateway(cfg config.Config, tel observability.Observability, logger *zap.Logger) domainPayment.Gateway {
	if !cfg.PaymentConfigured() {
		logger.Warn("payment_gateway_not_configured",
			zap.Bool("secret_key_set", cfg.Paystack.SecretKey != ""),
			zap.Bool("callback_base_url_set", cfg.Payment.CallbackBaseURL != ""),
		)
		return nil
	}
	return paystack.New(paystack.Config{
		BaseURL:   cfg.Paystack.BaseURL,
		SecretKey: cfg.Paystack.SecretKey,
		Timeout:   cfg.Payment.Timeout,
	}, tel)
}
