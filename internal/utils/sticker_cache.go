package utils

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const stickerCachePrefix = "stickers:"

// RedisStickerCache keeps encoded sticker images keyed by content hash.
type RedisStickerCache struct {
	client *goredis.Client
}

func NewRedisStickerCache(client *goredis.Client) *RedisStickerCache {
	return &RedisStickerCache{client: client}
}

// Get returns ok=false on a miss.
func (c *RedisStickerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, stickerCachePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisStickerCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, stickerCachePrefix+key, data, ttl).Err()
}
