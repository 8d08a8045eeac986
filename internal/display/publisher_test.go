package display

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (c *captureSink) Publish(_ context.Context, _ string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload.([]byte))
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func (c *captureSink) last() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.payloads) == 0 {
		return nil
	}
	return c.payloads[len(c.payloads)-1]
}

func newTestPublisher(sink *captureSink, minInterval time.Duration) *Publisher {
	return NewPublisher(
		config.DisplayConfig{RegisterID: "register-1", MinInterval: minInterval},
		sink,
		logger.New(logger.Options{Output: io.Discard}),
	)
}

func TestChannelDerivedFromRegisterID(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(&captureSink{}, time.Millisecond)
	require.Equal(t, "tp:display:register-1", p.channel)
}

func TestPublishNeverBlocks(t *testing.T) {
	t.Parallel()

	// no Run loop draining: every call must still return immediately
	p := newTestPublisher(&captureSink{}, time.Millisecond)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			p.Publish(cart.Snapshot{SessionID: uuid.New()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a consumer")
	}
}

func TestNewestSnapshotWins(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	p := newTestPublisher(sink, time.Millisecond)

	stale := uuid.New()
	fresh := uuid.New()
	p.Publish(cart.Snapshot{SessionID: stale})
	p.Publish(cart.Snapshot{SessionID: fresh})

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	require.Eventually(t, func() bool { return sink.count() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-p.Done()

	var got cart.Snapshot
	require.NoError(t, json.Unmarshal(sink.last(), &got))
	require.Equal(t, fresh, got.SessionID)
}

func TestMinIntervalSpacesSends(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	p := newTestPublisher(sink, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	start := time.Now()
	p.Publish(cart.Snapshot{SessionID: uuid.New()})
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, time.Millisecond)

	p.Publish(cart.Snapshot{SessionID: uuid.New()})
	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, time.Millisecond)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	cancel()
	<-p.Done()
}
