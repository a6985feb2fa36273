package payment_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	domorder "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/menu"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
)

var (
	pizza  = menu.Item{ID: 10, Name: "Margherita Pizza", Price: 3500}
	burger = menu.Item{ID: 20, Name: "Cheeseburger", Price: 1800}
)

type fakeGateway struct {
	mu            sync.Mutex
	initErr       error
	verifyErr     error
	verification  dompay.Verification
	initCalls     []dompay.InitializeRequest
	verifyCalls   []string
	blockUntilCtx bool
}

func (g *fakeGateway) Initialize(ctx context.Context, req dompay.InitializeRequest) (dompay.Transaction, error) {
	g.mu.Lock()
	g.initCalls = append(g.initCalls, req)
	block, err := g.blockUntilCtx, g.initErr
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return dompay.Transaction{}, fmt.Errorf("%w: %w", dompay.ErrGateway, ctx.Err())
	}
	if err != nil {
		return dompay.Transaction{}, err
	}
	return dompay.Transaction{
		AuthorizationURL: "https://checkout.test/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (dompay.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls = append(g.verifyCalls, reference)
	if g.verifyErr != nil {
		return dompay.Verification{}, g.verifyErr
	}
	v := g.verification
	v.Reference = reference
	return v, nil
}

func (g *fakeGateway) setVerification(v dompay.Verification) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verification = v
}

func (g *fakeGateway) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.initCalls), len(g.verifyCalls)
}

type seqRefs struct{ n atomic.Int64 }

func (s *seqRefs) NewID() string { return fmt.Sprintf("ref-%d", s.n.Add(1)) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) placed() []domorder.OrderPlacedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domorder.OrderPlacedEvent
	for _, e := range p.events {
		if evt, ok := e.(domorder.OrderPlacedEvent); ok {
			out = append(out, evt)
		}
	}
	return out
}

func (p *recordingPublisher) declined() []domorder.PaymentDeclinedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domorder.PaymentDeclinedEvent
	for _, e := range p.events {
		if evt, ok := e.(domorder.PaymentDeclinedEvent); ok {
			out = append(out, evt)
		}
	}
	return out
}

func newRepoWithCart(items ...menu.Item) (*memory.SessionRepository, *session.Session) {
	repo := memory.NewSessionRepository(id.NewUUIDGenerator())
	sess, _ := repo.Resolve(context.Background(), "")
	sess.Apply(func(st *session.State) {
		st.CurrentOrder = append(st.CurrentOrder, items...)
	})
	return repo, sess
}

// recordingTelemetry captures counter increments keyed by metric and labels.
type recordingTelemetry struct {
	logger observability.Logger

	mu     sync.Mutex
	counts map[string]float64
}

func newRecordingTelemetry(logger observability.Logger) *recordingTelemetry {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &recordingTelemetry{logger: logger, counts: make(map[string]float64)}
}

func (r *recordingTelemetry) Tracer() observability.Tracer   { return observability.NopTracer() }
func (r *recordingTelemetry) Logger() observability.Logger   { return r.logger }
func (r *recordingTelemetry) Metrics() observability.Metrics { return r }

func (r *recordingTelemetry) Counter(name observability.MetricKey) observability.Counter {
	return &recordingCounter{parent: r, name: name}
}

func (r *recordingTelemetry) Histogram(observability.MetricKey) observability.Histogram {
	return observability.NopHistogram()
}

func (r *recordingTelemetry) count(name observability.MetricKey, labels ...observability.Label) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[counterKey(name, labels)]
}

func counterKey(name observability.MetricKey, labels []observability.Label) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.Key+"="+l.Value)
	}
	sort.Strings(parts)
	return string(name) + "{" + strings.Join(parts, ",") + "}"
}

type recordingCounter struct {
	parent *recordingTelemetry
	name   observability.MetricKey
}

func (c *recordingCounter) Add(delta float64, labels ...observability.Label) {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	c.parent.counts[counterKey(c.name, labels)] += delta
}

func (c *recordingCounter) Bind(labels ...observability.Label) observability.BoundCounter {
	return boundRecordingCounter{c: c, labels: labels}
}

type boundRecordingCounter struct {
	c      *recordingCounter
	labels []observability.Label
}

func (b boundRecordingCounter) Add(delta float64) { b.c.Add(delta, b.labels...) }
