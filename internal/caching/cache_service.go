package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "tripdesk"

// DashboardTTL bounds how stale a cached dashboard summary can be.
const DashboardTTL = 5 * time.Minute

type CacheService interface {
	// Dashboard caching. dst is filled from JSON on a hit.
	GetDashboard(ctx context.Context, orgID uuid.UUID, rangeKey string, dst any) (bool, error)
	SetDashboard(ctx context.Context, orgID uuid.UUID, rangeKey string, summary any, ttl time.Duration) error
	InvalidateDashboard(ctx context.Context, orgID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisCacheService(addr, password string, db int, logger *zap.Logger) CacheService {
	// Accept both host:port and redis:// style addresses
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("redis ping failed on initialization", zap.String("addr", parsedAddr), zap.Error(pingErr))
	} else {
		logger.Info("redis connection established", zap.String("addr", parsedAddr))
	}

	return NewCacheServiceFromClient(client, logger)
}

// NewCacheServiceFromClient wraps an existing client.
func NewCacheServiceFromClient(client *redis.Client, logger *zap.Logger) CacheService {
	return &redisCacheService{client: client, logger: logger}
}

func dashboardKey(orgID uuid.UUID, rangeKey string) string {
	return fmt.Sprintf("%s:dashboard:%s:%s", keyPrefix, orgID.String(), rangeKey)
}

func (r *redisCacheService) GetDashboard(ctx context.Context, orgID uuid.UUID, rangeKey string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, dashboardKey(orgID, rangeKey)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, orgID uuid.UUID, rangeKey string, summary any, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, dashboardKey(orgID, rangeKey), data, ttl).Err()
}

// InvalidateDashboard drops every cached range of the organization.
func (r *redisCacheService) InvalidateDashboard(ctx context.Context, orgID uuid.UUID) error {
	pattern := fmt.Sprintf("%s:dashboard:%s:*", keyPrefix, orgID.String())
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
