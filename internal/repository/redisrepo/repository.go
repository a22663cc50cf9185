package redisrepo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Default interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ChangeFeed carries "something under this key changed" signals between instances.
type ChangeFeed interface {
	Publish(ctx context.Context, channel string) error
	Subscribe(ctx context.Context, channel string) (<-chan struct{}, error)
}

type RedisRepository struct {
	Default
	ChangeFeed
}

func New(rdb *redis.Client, logger *zap.Logger) *RedisRepository {
	return &RedisRepository{
		Default:    newDefaultRepo(rdb),
		ChangeFeed: newChangeFeed(rdb, logger),
	}
}
