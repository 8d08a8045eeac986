package display

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/redis"
)

// Publisher forwards cart snapshots to the customer-facing display over
// a pub/sub channel. Publishing never blocks the cart pipeline: the
// queue holds a single pending snapshot and a newer one displaces it,
// and consecutive sends are spaced by a minimum interval. Everything
// here is best effort, a failed publish is logged and forgotten.
type Publisher struct {
	sink        redis.Publisher
	channel     string
	minInterval time.Duration
	logger      *logger.Logger

	queue chan cart.Snapshot
	done  chan struct{}
}

func NewPublisher(cfg config.DisplayConfig, sink redis.Publisher, logg *logger.Logger) *Publisher {
	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = 200 * time.Millisecond
	}
	return &Publisher{
		sink:        sink,
		channel:     redis.DisplayChannelKey(cfg.RegisterID),
		minInterval: minInterval,
		logger:      logg,
		queue:       make(chan cart.Snapshot, 1),
		done:        make(chan struct{}),
	}
}

// Publish queues a snapshot, displacing any snapshot still waiting.
func (p *Publisher) Publish(snapshot cart.Snapshot) {
	for {
		select {
		case p.queue <- snapshot:
			return
		default:
		}
		select {
		case <-p.queue:
		default:
		}
	}
}

// Run drains the queue until ctx is cancelled. Call in its own goroutine.
func (p *Publisher) Run(ctx context.Context) {
	defer close(p.done)

	var lastSent time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot := <-p.queue:
			if wait := p.minInterval - time.Since(lastSent); wait > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
				// prefer a snapshot that arrived while throttled
				select {
				case snapshot = <-p.queue:
				default:
				}
			}
			p.send(ctx, snapshot)
			lastSent = time.Now()
		}
	}
}

// Done is closed once Run has exited.
func (p *Publisher) Done() <-chan struct{} {
	return p.done
}

func (p *Publisher) send(ctx context.Context, snapshot cart.Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		p.logger.Error(ctx, "marshal display snapshot", err)
		return
	}
	if err := p.sink.Publish(ctx, p.channel, payload); err != nil {
		p.logger.Warn(p.logger.WithSessionID(ctx, snapshot.SessionID.String()), "display publish failed")
	}
}
