package redisrepo

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// pubSubConn is the part of *redis.PubSub the hub drives.
type pubSubConn interface {
	Subscribe(ctx context.Context, channels ...string) error
	Unsubscribe(ctx context.Context, channels ...string) error
}

// hub multiplexes any number of local subscribers over one Pub/Sub connection.
// Redis is subscribed to a channel while it has at least one local subscriber.
type hub struct {
	conn   pubSubConn
	logger *zap.Logger

	mu       sync.Mutex
	channels map[string]*hubChannel
	// pending holds one waiter per SUBSCRIBE sent and not yet confirmed, in send order.
	pending  map[string][]chan struct{}
}

type hubChannel struct {
	subs  map[chan struct{}]struct{}
	ready chan struct{}
}

func newHub(conn pubSubConn, logger *zap.Logger) *hub {
	return &hub{
		conn:     conn,
		logger:   logger,
		channels: map[string]*hubChannel{},
		pending:  map[string][]chan struct{}{},
	}
}

// subscribe registers a subscriber for channel and returns once Redis has confirmed
// the subscription. Signals are coalesced into a buffer of one. The returned channel
// is closed when ctx is done.
func (h *hub) subscribe(ctx context.Context, channel string) (<-chan struct{}, error) {
	out := make(chan struct{}, 1)

	h.mu.Lock()
	hc, ok := h.channels[channel]
	if !ok {
		if err := h.conn.Subscribe(ctx, channel); err != nil {
			h.mu.Unlock()
			return nil, err
		}
		hc = &hubChannel{
			subs:  map[chan struct{}]struct{}{},
			ready: make(chan struct{}),
		}
		h.channels[channel] = hc
		h.pending[channel] = append(h.pending[channel], hc.ready)
	}
	hc.subs[out] = struct{}{}
	ready := hc.ready
	h.mu.Unlock()

	select {
	case <-ready:
	case <-ctx.Done():
		h.remove(channel, out)
		return nil, ctx.Err()
	}

	go func() {
		<-ctx.Done()
		h.remove(channel, out)
	}()

	return out, nil
}

func (h *hub) remove(channel string, out chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	hc, ok := h.channels[channel]
	if !ok {
		return
	}
	if _, ok := hc.subs[out]; !ok {
		return
	}
	delete(hc.subs, out)
	defer close(out)

	if len(hc.subs) > 0 {
		return
	}
	delete(h.channels, channel)
	if err := h.conn.Unsubscribe(context.Background(), channel); err != nil {
		h.logger.Sugar().Errorf("failed to unsubscribe from channel(%s): %s", channel, err.Error())
	}
}

// dispatch handles one value read from the Pub/Sub connection.
func (h *hub) dispatch(msg interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch m := msg.(type) {
	case *redis.Subscription:
		if m.Kind != "subscribe" {
			return
		}
		waiters := h.pending[m.Channel]
		if len(waiters) == 0 {
			return
		}
		close(waiters[0])
		if len(waiters) == 1 {
			delete(h.pending, m.Channel)
		} else {
			h.pending[m.Channel] = waiters[1:]
		}
	case *redis.Message:
		hc, ok := h.channels[m.Channel]
		if !ok {
			return
		}
		for out := range hc.subs {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}

func (h *hub) run(msgs <-chan interface{}) {
	for msg := range msgs {
		h.dispatch(msg)
	}
}
