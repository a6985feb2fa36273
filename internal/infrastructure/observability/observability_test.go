package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	infraobs "github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
)

func TestNewResolvesRegisteredInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := prometrics.New("", "", reg)
	core, logs := observer.New(zapcore.WarnLevel)

	tel := infraobs.New(nil, zaplogger.Wrap(zap.New(core)),
		map[observability.MetricKey]observability.Counter{
			observability.MOrdersPlaced: metrics.Counter(string(observability.MOrdersPlaced), "Orders placed.", "channel"),
		},
		nil,
	)

	tel.Metrics().Counter(observability.MOrdersPlaced).Add(1, observability.L("channel", "direct"))
	// unregistered keys are silently dropped
	tel.Metrics().Counter(observability.MHTTPRequests).Add(1)
	tel.Metrics().Histogram(observability.MUsecaseDuration).Observe(0.2)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "orders_placed_total", families[0].GetName())

	missing := map[string]string{}
	for _, e := range logs.FilterMessage("metric_not_registered").All() {
		ctx := e.ContextMap()
		missing[ctx["metric"].(string)] = ctx["kind"].(string)
	}
	assert.Len(t, missing, len(observability.CounterKeys())-1+len(observability.HistogramKeys()))
	assert.Equal(t, "counter", missing[string(observability.MPaymentConfirmations)])
	assert.Equal(t, "histogram", missing[string(observability.MExternalRequestDuration)])
	assert.NotContains(t, missing, string(observability.MOrdersPlaced))
}

func TestNewDefaultsToNop(t *testing.T) {
	tel := infraobs.New(nil, nil, nil, nil)

	assert.NotNil(t, tel.Tracer())
	assert.NotNil(t, tel.Logger())
	assert.NotPanics(t, func() {
		tel.Metrics().Counter(observability.MOrdersPlaced).Bind(observability.L("channel", "direct")).Add(1)
	})
}
