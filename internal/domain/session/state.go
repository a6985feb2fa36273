package session

import (
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/order"
)

// Mode is derived from a State's fields; it is never stored.
type Mode int

const (
	ModeIdle Mode = iota
	ModeBuilding
	ModeAwaitingPayment
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeBuilding:
		return "building"
	case ModeAwaitingPayment:
		return "awaiting_payment"
	default:
		return "unknown"
	}
}

// PendingPayment ties a checkout to an external gateway transaction.
// Items is the cart captured when the checkout was initiated.
type PendingPayment struct {
	Amount     int64
	Reference  string
	PaymentURL string
	Items      order.Items
}

// State is the per-client ordering state.
type State struct {
	CurrentOrder   order.Items
	Orders         []order.Items
	PendingPayment *PendingPayment
}

func (s *State) Mode() Mode {
	switch {
	case s.PendingPayment != nil:
		return ModeAwaitingPayment
	case !s.CurrentOrder.Empty():
		return ModeBuilding
	default:
		return ModeIdle
	}
}

// Place appends items to the order history and returns the 1-based order number.
func (s *State) Place(items order.Items) int {
	s.Orders = append(s.Orders, items.Clone())
	return len(s.Orders)
}

// CancelOrder empties the cart and drops any pending payment. The released
// reference, if any, is returned so the caller can unbind it.
func (s *State) CancelOrder() string {
	s.CurrentOrder = nil
	return s.clearPending()
}

// CompletePayment finalises the pending checkout using the snapshot taken at
// checkout time and returns the order number.
func (s *State) CompletePayment() (int, order.Items) {
	p := s.PendingPayment
	if p == nil {
		return 0, nil
	}
	n := s.Place(p.Items)
	s.CurrentOrder = nil
	s.PendingPayment = nil
	return n, p.Items
}

// DeclinePayment drops the pending payment but keeps the cart so the client
// can retry the checkout.
func (s *State) DeclinePayment() string {
	return s.clearPending()
}

func (s *State) clearPending() string {
	if s.PendingPayment == nil {
		return ""
	}
	ref := s.PendingPayment.Reference
	s.PendingPayment = nil
	return ref
}

// Clone returns a deep copy of the state.
func (s *State) Clone() State {
	out := State{
		CurrentOrder: s.CurrentOrder.Clone(),
	}
	if s.Orders != nil {
		out.Orders = make([]order.Items, len(s.Orders))
		for i, o := range s.Orders {
			out.Orders[i] = o.Clone()
		}
	}
	if s.PendingPayment != nil {
		p := *s.PendingPayment
		p.Items = p.Items.Clone()
		out.PendingPayment = &p
	}
	return out
}
