package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
http:
  address: ":9090"
  cors_origins: ["http://localhost:3000"]
database:
  host: db
  user: booking
  password: from-file
  name: flights
kafka:
  brokers: ["kafka:9092"]
  notifications_topic: notifications
worker:
  promo_sweep_schedule: "@every 1m"
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout())
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 30*time.Second, cfg.Booking.FlightsCacheDuration())
	assert.Equal(t, "booking-events", cfg.Kafka.BookingTopic)
	assert.Equal(t, "notifications", cfg.Kafka.NotificationsTopic)
	assert.Equal(t, "@every 1m", cfg.Worker.PromoSweepSchedule)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "host=db port=5432 user=booking password=from-file dbname=flights sslmode=disable", cfg.Database.DSN())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http: [unterminated"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	env := map[string]string{
		"DATABASE_PASSWORD": "secret",
		"REDIS_PASSWORD":    "redis-secret",
		"JWT_SECRET":        "jwt-secret",
		"KAFKA_BROKERS":     "k1:9092,k2:9092",
	}
	cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "redis-secret", cfg.Redis.Password)
	assert.Equal(t, "jwt-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	t.Setenv("DATABASE_PASSWORD", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Password)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
