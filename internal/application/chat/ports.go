package chat

import (
	"context"

	apppayment "github.com/Zhima-Mochi/minishop-chatbot/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
)

// Checkouter finalises or defers a cart checkout. It is called with the
// session lock held and may mutate st.
type Checkouter interface {
	Checkout(ctx context.Context, token string, st *session.State, total int64) (apppayment.Checkout, error)
}

// ReferenceReleaser forgets a payment reference that will never be confirmed.
type ReferenceReleaser interface {
	ReleaseReference(ctx context.Context, reference string)
}

var (
	_ Checkouter = (*apppayment.ImmediateCheckout)(nil)
	_ Checkouter = (*apppayment.Correlator)(nil)
)
