package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
)

// TokenGenerator issues new session tokens.
type TokenGenerator interface {
	NewToken() string
}

// SessionRepository keeps sessions for the lifetime of the process. There is
// no eviction.
type SessionRepository struct {
	mu         sync.RWMutex
	sessions   map[string]*domain.Session
	references map[string]string // payment reference -> session token
	tokens     TokenGenerator
}

func NewSessionRepository(tokens TokenGenerator) *SessionRepository {
	return &SessionRepository{
		sessions:   make(map[string]*domain.Session),
		references: make(map[string]string),
		tokens:     tokens,
	}
}

func (r *SessionRepository) Resolve(ctx context.Context, token string) (*domain.Session, bool) {
	_ = ctx
	if token != "" {
		r.mu.RLock()
		s, ok := r.sessions[token]
		r.mu.RUnlock()
		if ok {
			return s, false
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// another request may have created it between the two locks
	if token != "" {
		if s, ok := r.sessions[token]; ok {
			return s, false
		}
	}

	fresh := r.tokens.NewToken()
	for {
		if _, taken := r.sessions[fresh]; !taken {
			break
		}
		fresh = r.tokens.NewToken()
	}
	s := domain.New(fresh)
	r.sessions[fresh] = s
	return s, true
}

func (r *SessionRepository) Get(ctx context.Context, token string) (*domain.Session, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	_ = ctx
	if s == nil || s.Token == "" {
		return fmt.Errorf("session repository: token is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.Token] = s
	return nil
}

func (r *SessionRepository) Len(ctx context.Context) int {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRepository) BindReference(ctx context.Context, reference, token string) error {
	_ = ctx
	if reference == "" {
		return fmt.Errorf("session repository: reference is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[token]; !ok {
		return domain.ErrNotFound
	}
	if _, taken := r.references[reference]; taken {
		return domain.ErrReferenceConflict
	}
	r.references[reference] = token
	return nil
}

func (r *SessionRepository) ReleaseReference(ctx context.Context, reference string) {
	_ = ctx
	if reference == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.references, reference)
}

func (r *SessionRepository) FindByReference(ctx context.Context, reference string) (*domain.Session, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.references[reference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}
