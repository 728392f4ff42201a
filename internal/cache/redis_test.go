package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableCache() *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	return NewRedisCacheWithClient(client, time.Minute)
}

func TestRedisCache_Unreachable(t *testing.T) {
	c := unreachableCache()
	defer c.Close()
	ctx := context.Background()

	flights, err := c.GetFlights(ctx)
	assert.Error(t, err, "connection errors are not reported as a miss")
	assert.Nil(t, flights)
	assert.Error(t, c.SetFlights(ctx, []domain.Flight{{ID: 1}}))
	assert.Error(t, c.InvalidateFlights(ctx))
	assert.Error(t, c.Ping(ctx))
}

// TestRedisCache_RoundTrip runs against a live server when REDIS_ADDR is set.
func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: addr, DB: 15}), time.Minute)
	defer c.Close()
	ctx := context.Background()
	require.NoError(t, c.InvalidateFlights(ctx))

	flights, err := c.GetFlights(ctx)
	require.NoError(t, err)
	assert.Nil(t, flights)

	economy := int64(1000000)
	want := []domain.Flight{{
		ID: 1, CarrierCode: "VN", FlightNumber: "123",
		Prices:         map[domain.FareClass]*int64{domain.FareClassEconomy: &economy},
		Seats:          map[domain.FareClass]int{domain.FareClassEconomy: 10},
		AvailableSeats: 10,
	}}
	require.NoError(t, c.SetFlights(ctx, want))

	flights, err = c.GetFlights(ctx)
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "VN123", flights[0].Code())
	assert.Equal(t, economy, *flights[0].Prices[domain.FareClassEconomy])

	require.NoError(t, c.InvalidateFlights(ctx))
	flights, err = c.GetFlights(ctx)
	require.NoError(t, err)
	assert.Nil(t, flights)
}
