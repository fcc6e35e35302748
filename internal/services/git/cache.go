package git

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/terranocoder/terrano/internal/infrastructure/redis"
)

const statusKey = "terrano:git:status"

// StatusCache holds the most recent polled status
type StatusCache interface {
	Store(ctx context.Context, status Status) error
	// Load reports false when nothing has been cached yet
	Load(ctx context.Context) (Status, bool, error)
}

type RedisCache struct {
	redisService *redis.Service
}

type MemoryCache struct {
	mu     sync.RWMutex
	status *Status
}

// NewCache uses Redis when it is reachable and memory otherwise
func NewCache(redisService *redis.Service) StatusCache {
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err == nil {
			return &RedisCache{redisService: redisService}
		}
	}
	return &MemoryCache{}
}

// Redis Cache implementation
func (rc *RedisCache) Store(ctx context.Context, status Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return rc.redisService.Set(ctx, statusKey, string(data), 0)
}

func (rc *RedisCache) Load(ctx context.Context) (Status, bool, error) {
	data, err := rc.redisService.Get(ctx, statusKey)
	if errors.Is(err, redis.Nil) {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, err
	}

	var status Status
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return Status{}, false, err
	}
	return status, true, nil
}

// Memory Cache implementation
func (mc *MemoryCache) Store(ctx context.Context, status Status) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.status = &status
	return nil
}

func (mc *MemoryCache) Load(ctx context.Context) (Status, bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.status == nil {
		return Status{}, false, nil
	}
	return *mc.status, true, nil
}
