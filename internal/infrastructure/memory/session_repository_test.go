package memory_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/memory"
)

type seqTokens struct {
	n      atomic.Int64
	values []string
}

func (s *seqTokens) NewToken() string {
	i := s.n.Add(1) - 1
	if int(i) < len(s.values) {
		return s.values[i]
	}
	return fmt.Sprintf("tok-%d", i)
}

func TestResolveCreatesOnceAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository(id.NewUUIDGenerator())

	s, created := repo.Resolve(ctx, "")
	require.True(t, created)
	require.NotEmpty(t, s.Token)

	again, created := repo.Resolve(ctx, s.Token)
	assert.False(t, created)
	assert.Same(t, s, again)

	unknown, created := repo.Resolve(ctx, "not-a-token")
	assert.True(t, created)
	assert.NotEqual(t, "not-a-token", unknown.Token)
	assert.NotSame(t, s, unknown)
	assert.Equal(t, 2, repo.Len(ctx))

	snap := s.Snapshot()
	assert.Empty(t, snap.CurrentOrder)
	assert.Empty(t, snap.Orders)
	assert.Nil(t, snap.PendingPayment)
}

func TestResolveSkipsCollidingTokens(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository(&seqTokens{values: []string{"a", "a", "b"}})

	first, _ := repo.Resolve(ctx, "")
	second, _ := repo.Resolve(ctx, "")

	assert.Equal(t, "a", first.Token)
	assert.Equal(t, "b", second.Token)
}

func TestGetAndSave(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository(id.NewUUIDGenerator())

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	s := domain.New("fixed")
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, "fixed")
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.Error(t, repo.Save(ctx, domain.New("")))
	require.Error(t, repo.Save(ctx, nil))
}

func TestReferences(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository(id.NewUUIDGenerator())
	a, _ := repo.Resolve(ctx, "")
	b, _ := repo.Resolve(ctx, "")

	require.NoError(t, repo.BindReference(ctx, "ref-1", a.Token))
	require.ErrorIs(t, repo.BindReference(ctx, "ref-1", b.Token), domain.ErrReferenceConflict)
	require.ErrorIs(t, repo.BindReference(ctx, "ref-2", "ghost"), domain.ErrNotFound)
	require.Error(t, repo.BindReference(ctx, "", a.Token))

	found, err := repo.FindByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Same(t, a, found)

	repo.ReleaseReference(ctx, "ref-1")
	_, err = repo.FindByReference(ctx, "ref-1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.BindReference(ctx, "ref-1", b.Token))
}

func TestConcurrentResolve(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository(id.NewUUIDGenerator())
	shared, _ := repo.Resolve(ctx, "")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s, created := repo.Resolve(ctx, shared.Token)
			assert.False(t, created)
			assert.Same(t, shared, s)
		}()
		go func() {
			defer wg.Done()
			_, created := repo.Resolve(ctx, "")
			assert.True(t, created)
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, repo.Len(ctx))
}
