package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound          = errors.New("session: not found")
	ErrReferenceConflict = errors.New("session: payment reference already bound")
)

// Session owns one client's State. Access to the state is serialised per
// session so that unrelated sessions never wait on each other.
type Session struct {
	Token     string
	CreatedAt time.Time

	mu    sync.Mutex
	state State
}

func New(token string) *Session {
	return &Session{
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
}

// Apply runs fn with exclusive access to the session state.
func (s *Session) Apply(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Repository is the session store port.
type Repository interface {
	// Resolve returns the session for token, creating one with a fresh token
	// when token is empty or unknown. The bool reports whether it was created.
	Resolve(ctx context.Context, token string) (*Session, bool)
	Get(ctx context.Context, token string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Len(ctx context.Context) int

	// BindReference registers reference as the correlation key of the
	// session identified by token.
	BindReference(ctx context.Context, reference, token string) error
	ReleaseReference(ctx context.Context, reference string)
	FindByReference(ctx context.Context, reference string) (*Session, error)
}
