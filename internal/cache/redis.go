package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/GraceTang323/LinkedUp/internal/config"
	"github.com/redis/go-redis/v9"
)

// TopicDirectoryChanged is published whenever the user directory mutates
// (profile created, location saved, account deleted). Discovery feeds
// re-query on every publish.
const TopicDirectoryChanged = "directory:changed"

// TopicRoom returns the pub/sub topic for a chat room.
func TopicRoom(roomID string) string {
	return "room:" + roomID
}

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// Publish notifies all live subscriptions listening on topic. The payload is
// only a wakeup; subscribers re-read the store for the full snapshot.
func (c *RedisCache) Publish(ctx context.Context, topic string) error {
	return c.Client.Publish(ctx, topic, "1").Err()
}

// Subscribe registers a pub/sub listener on topic. The caller owns the
// returned PubSub and must Close it to release the listener.
func (c *RedisCache) Subscribe(ctx context.Context, topic string) *redis.PubSub {
	return c.Client.Subscribe(ctx, topic)
}

// KeyForMatchCount generates the Redis key for a user's match count.
func (c *RedisCache) KeyForMatchCount(uid string) string {
	return fmt.Sprintf("matches:count:%s", uid)
}

// GetMatchCount reads a cached match count. A cache miss is not an error;
// it returns found=false.
func (c *RedisCache) GetMatchCount(ctx context.Context, uid string) (int64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForMatchCount(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, c.KeyForMatchCount(uid), time.Hour).Err()

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat unparseable as a miss
	}
	return n, true, nil
}

// SetMatchCount stores a match count with a 1h TTL.
func (c *RedisCache) SetMatchCount(ctx context.Context, uid string, count int64) error {
	return c.Client.Set(ctx, c.KeyForMatchCount(uid), strconv.FormatInt(count, 10), time.Hour).Err()
}

// InvalidateMatchCount drops the cached count for both sides of a pair.
func (c *RedisCache) InvalidateMatchCount(ctx context.Context, uids ...string) {
	for _, uid := range uids {
		_ = c.Client.Del(ctx, c.KeyForMatchCount(uid)).Err()
	}
}
