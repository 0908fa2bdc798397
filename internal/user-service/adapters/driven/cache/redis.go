package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bustrack/internal/config"
	"bustrack/internal/shared/models"
	ports "bustrack/internal/user-service/core/ports/driven"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "bustrack:bus:"

// BusCache stores by-bus lookups as JSON strings with a TTL.
type BusCache struct {
	rdb *redis.Client
}

var _ ports.IBusCache = (*BusCache)(nil)

// New connects to Redis and checks the connection.
func New(ctx context.Context, cfg config.Redisconfig) (*BusCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}
	return &BusCache{rdb: rdb}, nil
}

func (c *BusCache) Get(ctx context.Context, busNumber string) (models.DriverWithRoute, bool, error) {
	raw, err := c.rdb.Get(ctx, key(busNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.DriverWithRoute{}, false, nil
	}
	if err != nil {
		return models.DriverWithRoute{}, false, err
	}

	var rec models.DriverWithRoute
	if err := json.Unmarshal(raw, &rec); err != nil {
		// unreadable entries are dropped and reported as a miss
		c.rdb.Del(ctx, key(busNumber))
		return models.DriverWithRoute{}, false, nil
	}
	return rec, true, nil
}

func (c *BusCache) Set(ctx context.Context, busNumber string, rec models.DriverWithRoute, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(busNumber), raw, ttl).Err()
}

func (c *BusCache) Close() error {
	return c.rdb.Close()
}

func key(busNumber string) string {
	return keyPrefix + busNumber
}
