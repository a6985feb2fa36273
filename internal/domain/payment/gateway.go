package payment

import (
	"context"
	"errors"
)

var (
	// ErrGateway wraps every failure talking to the payment provider:
	// transport errors, timeouts, non-2xx statuses and malformed bodies.
	ErrGateway = errors.New("payment: gateway failure")
	// ErrNotConfigured is returned when the gateway credentials or the
	// callback address are missing.
	ErrNotConfigured = errors.New("payment: gateway not configured")
)

// SubunitFactor converts whole currency units into the gateway's minor unit
// (kobo per naira).
const SubunitFactor = 100

func ToSubunits(amount int64) int64 { return amount * SubunitFactor }

type Status string

const (
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusAbandoned  Status = "abandoned"
	StatusReversed   Status = "reversed"
	StatusPending    Status = "pending"
	StatusOngoing    Status = "ongoing"
	StatusProcessing Status = "processing"
	StatusQueued     Status = "queued"
)

func (s Status) Succeeded() bool { return s == StatusSuccess }

// Final reports whether the transaction can no longer change. Any other
// status, including ones the gateway adds later, means the customer may still
// complete the charge.
func (s Status) Final() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusAbandoned, StatusReversed:
		return true
	}
	return false
}

// InitializeRequest asks the gateway to open a transaction.
type InitializeRequest struct {
	Amount      int64
	Reference   string
	CallbackURL string
	Email       string
}

// Transaction is the gateway's answer to an initialize call.
type Transaction struct {
	AuthorizationURL string
	Reference        string
}

// Verification is the gateway's current view of a transaction.
type Verification struct {
	Reference string
	Status    Status
	// AmountSubunits is what the gateway charged, in the minor unit.
	AmountSubunits int64
}

// Gateway is the outbound port to an external payment provider.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (Transaction, error)
	Verify(ctx context.Context, reference string) (Verification, error)
}
