package chat

import (
	"context"
	"errors"
	"fmt"

	dompay "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/menu"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability/logctx"
)

// Interpreter maps one line of client input onto the session state and
// produces the reply lines. It never fails: every problem becomes a reply.
type Interpreter struct {
	catalog  *menu.Catalog
	checkout Checkouter
	releaser ReferenceReleaser
	log      observability.Logger
}

func NewInterpreter(catalog *menu.Catalog, checkout Checkouter, releaser ReferenceReleaser, logger observability.Logger) *Interpreter {
	if catalog == nil {
		catalog = menu.Default()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Interpreter{
		catalog:  catalog,
		checkout: checkout,
		releaser: releaser,
		log:      logger,
	}
}

// Interpret must be called with exclusive access to st.
func (in *Interpreter) Interpret(ctx context.Context, token string, st *session.State, input string) []string {
	_, reply := in.interpret(ctx, token, st, input)
	return reply
}

// interpret also returns the parsed command so the caller can label its span.
func (in *Interpreter) interpret(ctx context.Context, token string, st *session.State, input string) (Command, []string) {
	cmd, err := Parse(in.catalog, input)
	if err != nil {
		logctx.FromOr(ctx, in.log).Debug("chat_input_rejected", observability.F("error", err))
	}
	return cmd, in.dispatch(ctx, token, st, cmd)
}

func (in *Interpreter) dispatch(ctx context.Context, token string, st *session.State, cmd Command) []string {
	switch cmd.Kind {
	case KindMenu:
		return MainMenu()
	case KindList:
		return listing(in.catalog)
	case KindCheckout:
		return in.checkoutOrder(ctx, token, st)
	case KindHistory:
		if len(st.Orders) == 0 {
			return []string{msgNoHistory}
		}
		return history(st.Orders)
	case KindCurrent:
		if st.CurrentOrder.Empty() {
			return []string{msgNoCurrent}
		}
		return []string{msgCurrentHeader, st.CurrentOrder.Names()}
	case KindCancel:
		if ref := st.CancelOrder(); ref != "" && in.releaser != nil {
			in.releaser.ReleaseReference(ctx, ref)
		}
		return withMenu(msgCancelled)
	case KindAddItem:
		st.CurrentOrder = append(st.CurrentOrder, cmd.Item)
		return []string{fmt.Sprintf(msgAddedFmt, cmd.Item.Name), msgSelectMore}
	default:
		return withMenu(msgInvalidInput)
	}
}

func (in *Interpreter) checkoutOrder(ctx context.Context, token string, st *session.State) []string {
	if p := st.PendingPayment; p != nil {
		return paymentLink(p.Amount, p.PaymentURL)
	}
	if st.CurrentOrder.Empty() {
		return []string{msgNothingToPlace}
	}
	if in.checkout == nil {
		return []string{msgPaymentFailed}
	}

	res, err := in.checkout.Checkout(ctx, token, st, st.CurrentOrder.Total())
	if err != nil {
		level := logctx.FromOr(ctx, in.log).Error
		if errors.Is(err, dompay.ErrNotConfigured) {
			level = logctx.FromOr(ctx, in.log).Warn
		}
		level("checkout_failed", observability.F("error", err))
		return []string{msgPaymentFailed}
	}
	if res.Finalized {
		return withMenu(msgOrderPlaced)
	}
	return paymentLink(res.Total, res.PaymentURL)
}
