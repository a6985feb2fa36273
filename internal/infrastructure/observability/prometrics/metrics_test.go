package prometrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
)

func TestCounterRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := prometrics.New("minishop", "", reg)

	c1 := r.Counter("orders_placed_total", "Orders placed.", "channel")
	c2 := r.Counter("orders_placed_total", "Orders placed.", "channel")

	c1.Add(1, observability.L("channel", "direct"))
	c2.Add(2, observability.L("channel", "direct"))
	c2.Bind(observability.L("channel", "paystack")).Add(1)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "minishop_orders_placed_total", families[0].GetName())
	assert.Len(t, families[0].GetMetric(), 2)

	var direct float64
	for _, m := range families[0].GetMetric() {
		if m.GetLabel()[0].GetValue() == "direct" {
			direct = m.GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 3, direct, 0.0001)
}

func TestHistogramObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := prometrics.New("minishop", "http", reg)

	h := r.Histogram("request_duration_seconds", "Request latency.", prometheus.DefBuckets, "route")
	h.Observe(0.2, observability.L("route", "/chat"))
	h.Bind(observability.L("route", "/chat")).Observe(0.4)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "minishop_http_request_duration_seconds", families[0].GetName())
	assert.EqualValues(t, 2, families[0].GetMetric()[0].GetHistogram().GetSampleCount())
}
