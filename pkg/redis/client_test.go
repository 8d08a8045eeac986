package redis

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestPublishRecordsPayload(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Publish(ctx, "tp:display:reg-1", `{"total":100}`); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(mock.published["tp:display:reg-1"]) != 1 {
		t.Fatalf("expected one published payload")
	}
}

func TestDisplayChannelKey(t *testing.T) {
	if got := DisplayChannelKey("reg-1"); got != "tp:display:reg-1" {
		t.Fatalf("unexpected display key %s", got)
	}
	if got := DisplayChannelKey(""); got != "tp:display" {
		t.Fatalf("empty register id should still namespace, got %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Publish(context.Background(), "chan", "x"); err == nil {
		t.Fatalf("expected error on uninitialized client")
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on uninitialized client")
	}
}

type mockCmdable struct {
	published map[string][]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{published: make(map[string][]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, payload any) *redis.IntCmd {
	m.published[channel] = append(m.published[channel], fmt.Sprint(payload))
	return redis.NewIntResult(1, nil)
}
