package observability

import (
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics *instruments
}

// instruments resolves a MetricKey to its registered Prometheus instrument.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m *instruments) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := m.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (m *instruments) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}

// New bundles the tracer, logger and metric instruments handed to the chat
// and payment use cases. Every key from observability.CounterKeys and
// observability.HistogramKeys that has no instrument is reported once as
// metric_not_registered; its calls become no-ops.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	m := &instruments{
		counters:   make(map[observability.MetricKey]observability.Counter, len(counters)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(histograms)),
	}
	for k, v := range counters {
		if v != nil {
			m.counters[k] = v
		}
	}
	for k, v := range histograms {
		if v != nil {
			m.histograms[k] = v
		}
	}

	for _, k := range observability.CounterKeys() {
		if _, ok := m.counters[k]; !ok {
			logger.Warn("metric_not_registered", observability.F("metric", string(k)), observability.F("kind", "counter"))
		}
	}
	for _, k := range observability.HistogramKeys() {
		if _, ok := m.histograms[k]; !ok {
			logger.Warn("metric_not_registered", observability.F("metric", string(k)), observability.F("kind", "histogram"))
		}
	}

	return &provider{tracer: tracer, logger: logger, metrics: m}
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
