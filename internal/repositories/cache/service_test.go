package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "dashboard:business:biz-1", DashboardKey("biz-1"))
	assert.Equal(t, "banks:country:NG", BanksKey("NG"))
}

func TestCacheService_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	svc := NewCacheService(client)
	t.Cleanup(func() { _ = svc.Close() })

	var dest map[string]string
	found, err := svc.Get(context.Background(), "k", &dest)
	assert.False(t, found)
	require.Error(t, err)
	assert.Error(t, svc.HealthCheck(context.Background()))
}
