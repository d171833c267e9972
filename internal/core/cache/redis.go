package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through cache. With a nil RDB it only coalesces
// concurrent loads.
type Cache struct {
	RDB    *redis.Client
	Prefix string
	sf     singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	if addr == "" {
		return &Cache{Prefix: "sb:"}
	}
	return &Cache{
		RDB:    redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		Prefix: "sb:",
	}
}

func (c *Cache) key(k string) string { return c.Prefix + k }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.RDB != nil {
		if b, err := c.RDB.Get(ctx, c.key(key)).Bytes(); err == nil {
			return b, nil
		}
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if c.RDB != nil {
			_ = c.RDB.Set(ctx, c.key(key), b, ttl).Err()
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.RDB == nil {
		return nil
	}
	return c.RDB.Del(ctx, c.key(key)).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	if c.RDB == nil {
		return nil
	}
	return c.RDB.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c.RDB == nil {
		return nil
	}
	return c.RDB.Close()
}
