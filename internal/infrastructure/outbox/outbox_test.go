package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/Zhima-Mochi/minishop-chatbot/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/outbox"
)

type testEvent struct{ name, payload string }

func (e testEvent) EventName() string { return e.name }

func TestBusDeliversToSubscribers(t *testing.T) {
	ctx := context.Background()
	bus := outbox.NewBus(nil)

	var (
		mu  sync.Mutex
		got []string
	)
	record := func(tag string) domoutbox.Handler {
		return func(_ context.Context, e domoutbox.Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, tag+":"+e.(testEvent).payload)
			return nil
		}
	}
	bus.Subscribe("a", record("h1"))
	bus.Subscribe("a", record("h2"))
	bus.Subscribe("b", record("h3"))

	bus.Start(ctx)
	require.NoError(t, bus.Publish(ctx, testEvent{name: "a", payload: "x"}))
	require.NoError(t, bus.Publish(ctx, testEvent{name: "c", payload: "dropped"}))

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	bus.Stop(stopCtx)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"h1:x", "h2:x"}, got)
}

func TestBusSurvivesHandlerFailures(t *testing.T) {
	ctx := context.Background()
	bus := outbox.NewBus(nil, outbox.WithConcurrency(1), outbox.WithHandlerTimeout(time.Second))

	delivered := make(chan struct{}, 1)
	bus.Subscribe("a", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("a", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("a", func(context.Context, domoutbox.Event) error {
		delivered <- struct{}{}
		return nil
	})

	bus.Start(ctx)
	require.NoError(t, bus.Publish(ctx, testEvent{name: "a"}))

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked")
	}
	bus.Stop(ctx)
}

func TestBusPublishAfterStop(t *testing.T) {
	ctx := context.Background()
	bus := outbox.NewBus(nil, outbox.WithQueueSize(1))
	bus.Start(ctx)
	bus.Stop(ctx)

	err := bus.Publish(ctx, testEvent{name: "a"})
	require.ErrorIs(t, err, outbox.ErrClosed)
	assert.NoError(t, bus.Publish(ctx, nil))
}
