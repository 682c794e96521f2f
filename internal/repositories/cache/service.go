package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type EntityType string

const (
	EntityDashboard EntityType = "dashboard"
	EntityBanks     EntityType = "banks"
)

type KeyType string

const (
	KeyBusiness KeyType = "business"
	KeyCountry  KeyType = "country"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}

func DashboardKey(businessID string) string {
	return GenerateKey(EntityDashboard, KeyBusiness, businessID)
}

func BanksKey(country string) string {
	return GenerateKey(EntityBanks, KeyCountry, country)
}

// CacheService stores JSON-encoded values in redis. Callers pick the TTL
// per entity.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// Get decodes the value at key into dest and reports whether it was present.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// InvalidateDashboard drops the cached rollup for a business.
func (s *CacheService) InvalidateDashboard(ctx context.Context, businessID string) error {
	return s.Delete(ctx, DashboardKey(businessID))
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
