package redisrepo

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// changeFeed shares a single Pub/Sub connection between every subscriber in the process.
type changeFeed struct {
	rdb    *redis.Client
	logger *zap.Logger

	once sync.Once
	hub  *hub
}

func newChangeFeed(rdb *redis.Client, logger *zap.Logger) ChangeFeed {
	return &changeFeed{
		rdb:    rdb,
		logger: logger,
	}
}

func (f *changeFeed) Publish(ctx context.Context, channel string) error {
	return f.rdb.Publish(ctx, channel, "changed").Err()
}

// Subscribe returns once the subscription is confirmed by the server, so any change
// published after it returns is observed. Signals are coalesced: a reader that falls
// behind sees a single pending signal. The channel is closed when ctx is done.
func (f *changeFeed) Subscribe(ctx context.Context, channel string) (<-chan struct{}, error) {
	f.once.Do(func() {
		pubsub := f.rdb.Subscribe(context.Background())
		f.hub = newHub(pubsub, f.logger)
		go f.hub.run(pubsub.ChannelWithSubscriptions())
	})

	return f.hub.subscribe(ctx, channel)
}
