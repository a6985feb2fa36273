package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability/logctx"
)

const (
	CallbackPath          = "/paystack/callback"
	defaultGatewayTimeout = 10 * time.Second
)

type OutcomeStatus string

const (
	OutcomeConfirmed OutcomeStatus = "confirmed"
	OutcomeDeclined  OutcomeStatus = "declined"
	// OutcomePending means the gateway has not settled the charge yet; the
	// session keeps waiting on the same reference.
	OutcomePending OutcomeStatus = "pending"
	OutcomeNotFound  OutcomeStatus = "not_found"
	OutcomeError     OutcomeStatus = "error"
)

// Outcome is the result of reconciling a pending payment.
type Outcome struct {
	Status        OutcomeStatus
	Reference     string
	GatewayStatus dompay.Status
	OrderNumber   int
	Items         domorder.Items
	Total         int64
}

type CorrelatorConfig struct {
	// CallbackBaseURL is the public origin the gateway sends the customer back to.
	CallbackBaseURL string
	CustomerEmail   string
	Timeout         time.Duration
}

// Correlator defers order finalisation until the gateway confirms payment.
// Pending checkouts are found again through their reference.
type Correlator struct {
	repo      session.Repository
	gateway   dompay.Gateway
	refs      IDGenerator
	publisher domoutbox.Publisher
	cfg       CorrelatorConfig

	log           observability.Logger
	placed        observability.Counter // orders_placed_total{channel}
	confirmations observability.Counter // payment_confirmations_total{outcome}
}

func NewCorrelator(
	repo session.Repository,
	gateway dompay.Gateway,
	refs IDGenerator,
	publisher domoutbox.Publisher,
	cfg CorrelatorConfig,
	tel observability.Observability,
) *Correlator {
	if tel == nil {
		tel = observability.Nop()
	}
	if gateway == nil {
		gateway = UnavailableGateway{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGatewayTimeout
	}
	metrics := tel.Metrics()
	return &Correlator{
		repo:          repo,
		gateway:       gateway,
		refs:          refs,
		publisher:     publisher,
		cfg:           cfg,
		log:           tel.Logger().With(observability.F("component", "payment_correlator")),
		placed:        metrics.Counter(observability.MOrdersPlaced),
		confirmations: metrics.Counter(observability.MPaymentConfirmations),
	}
}

// Checkout opens a gateway transaction for the cart and records it as the
// session's pending payment. The cart itself is left untouched; on any
// failure the state is not modified.
func (c *Correlator) Checkout(ctx context.Context, token string, st *session.State, total int64) (Checkout, error) {
	logger := logctx.FromOr(ctx, c.log)

	if p := st.PendingPayment; p != nil {
		return Checkout{Total: p.Amount, PaymentURL: p.PaymentURL, Reference: p.Reference}, nil
	}
	if c.cfg.CallbackBaseURL == "" {
		return Checkout{}, fmt.Errorf("payment: callback url: %w", dompay.ErrNotConfigured)
	}

	ref := c.refs.NewID()
	gctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	tx, err := c.gateway.Initialize(gctx, dompay.InitializeRequest{
		Amount:      total,
		Reference:   ref,
		CallbackURL: c.cfg.CallbackBaseURL + CallbackPath + "?ref=" + ref,
		Email:       c.cfg.CustomerEmail,
	})
	if err != nil {
		logger.Error("payment_initialize_failed",
			observability.F("reference", ref),
			observability.F("amount", total),
			observability.F("error", err),
		)
		if !errors.Is(err, dompay.ErrGateway) && !errors.Is(err, dompay.ErrNotConfigured) {
			err = fmt.Errorf("%w: %w", dompay.ErrGateway, err)
		}
		return Checkout{}, err
	}

	if err := c.repo.BindReference(ctx, ref, token); err != nil {
		logger.Error("payment_reference_bind_failed",
			observability.F("reference", ref),
			observability.F("error", err),
		)
		return Checkout{}, fmt.Errorf("payment: bind reference: %w", err)
	}

	st.PendingPayment = &session.PendingPayment{
		Amount:     total,
		Reference:  ref,
		PaymentURL: tx.AuthorizationURL,
		Items:      st.CurrentOrder.Clone(),
	}
	logger.Info("payment_initialized",
		observability.F("reference", ref),
		observability.F("amount", total),
	)
	return Checkout{Total: total, PaymentURL: tx.AuthorizationURL, Reference: ref}, nil
}

// Confirm applies a gateway verdict to the session waiting on reference.
// Success moves the checkout snapshot into the order history; a failed
// final status drops the pending payment and keeps the cart for a retry. A
// status that is not final changes nothing and the reference stays bound.
func (c *Correlator) Confirm(ctx context.Context, reference string, status dompay.Status) (Outcome, error) {
	logger := logctx.FromOr(ctx, c.log).With(observability.F("reference", reference))
	out := Outcome{Status: OutcomeNotFound, Reference: reference, GatewayStatus: status}

	sess, err := c.repo.FindByReference(ctx, reference)
	if err != nil {
		c.confirmations.Add(1, observability.L("outcome", string(OutcomeNotFound)))
		return out, err
	}

	if !status.Final() {
		p := sess.Snapshot().PendingPayment
		if p == nil || p.Reference != reference {
			c.repo.ReleaseReference(ctx, reference)
			c.confirmations.Add(1, observability.L("outcome", string(OutcomeNotFound)))
			logger.Warn("payment_reference_stale")
			return out, session.ErrNotFound
		}
		out.Status = OutcomePending
		out.Total = p.Amount
		c.confirmations.Add(1, observability.L("outcome", string(OutcomePending)))
		logger.Info("payment_still_pending", observability.F("gateway_status", string(status)))
		return out, nil
	}

	var pending session.PendingPayment
	found := false
	sess.Apply(func(st *session.State) {
		p := st.PendingPayment
		if p == nil || p.Reference != reference {
			return
		}
		found = true
		pending = *p
		if status.Succeeded() {
			out.OrderNumber, out.Items = st.CompletePayment()
			out.Status = OutcomeConfirmed
			out.Total = out.Items.Total()
			return
		}
		st.DeclinePayment()
		out.Status = OutcomeDeclined
		out.Total = pending.Amount
	})
	c.repo.ReleaseReference(ctx, reference)

	c.confirmations.Add(1, observability.L("outcome", string(out.Status)))
	if !found {
		logger.Warn("payment_reference_stale")
		return out, session.ErrNotFound
	}

	switch out.Status {
	case OutcomeConfirmed:
		c.placed.Add(1, observability.L("channel", domorder.ChannelPaystack))
		publish(ctx, c.publisher, logger,
			domorder.NewOrderPlacedEvent(sess.Token, out.OrderNumber, out.Items, domorder.ChannelPaystack, reference))
		logger.Info("payment_confirmed", observability.F("order_number", out.OrderNumber))
	default:
		publish(ctx, c.publisher, logger,
			domorder.NewPaymentDeclinedEvent(sess.Token, reference, pending.Amount, string(status)))
		logger.Info("payment_declined", observability.F("gateway_status", string(status)))
	}
	return out, nil
}

// Reconcile asks the gateway for the verdict on reference and applies it.
// Unknown references are rejected before the gateway is contacted.
func (c *Correlator) Reconcile(ctx context.Context, reference string) (Outcome, error) {
	logger := logctx.FromOr(ctx, c.log).With(observability.F("reference", reference))

	sess, err := c.repo.FindByReference(ctx, reference)
	if err != nil {
		c.confirmations.Add(1, observability.L("outcome", string(OutcomeNotFound)))
		return Outcome{Status: OutcomeNotFound, Reference: reference}, err
	}
	var expected int64
	if p := sess.Snapshot().PendingPayment; p != nil {
		expected = p.Amount
	}

	gctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	v, err := c.gateway.Verify(gctx, reference)
	if err != nil {
		logger.Error("payment_verify_failed", observability.F("error", err))
		c.confirmations.Add(1, observability.L("outcome", string(OutcomeError)))
		if !errors.Is(err, dompay.ErrGateway) && !errors.Is(err, dompay.ErrNotConfigured) {
			err = fmt.Errorf("%w: %w", dompay.ErrGateway, err)
		}
		return Outcome{Status: OutcomeError, Reference: reference}, err
	}

	status := v.Status
	if status.Succeeded() && (v.AmountSubunits == 0 || v.AmountSubunits != dompay.ToSubunits(expected)) {
		logger.Warn("payment_amount_mismatch",
			observability.F("expected_subunits", dompay.ToSubunits(expected)),
			observability.F("paid_subunits", v.AmountSubunits),
		)
		status = dompay.StatusFailed
	}
	return c.Confirm(ctx, reference, status)
}

// UnavailableGateway stands in when the gateway is not configured; every call
// fails with ErrNotConfigured.
type UnavailableGateway struct{}

func (UnavailableGateway) Initialize(context.Context, dompay.InitializeRequest) (dompay.Transaction, error) {
	return dompay.Transaction{}, dompay.ErrNotConfigured
}

func (UnavailableGateway) Verify(context.Context, string) (dompay.Verification, error) {
	return dompay.Verification{}, dompay.ErrNotConfigured
}
