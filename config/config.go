package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address                string   `yaml:"address"`
	SwaggerDir             string   `yaml:"swagger_dir"`
	CORSOrigins            []string `yaml:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownTimeoutSeconds) * time.Second
}

// AuthConfig protects the operator endpoints (flight create and delete).
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	FlightsCacheTTL int `yaml:"flights_cache_ttl_seconds"`
}

func (b BookingConfig) FlightsCacheDuration() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

type WorkerConfig struct {
	// PromoSweepSchedule is a cron spec, e.g. "*/5 * * * *" or "@every 5m".
	PromoSweepSchedule string `yaml:"promo_sweep_schedule"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads the YAML file at path, then applies .env and environment
// overrides and fills defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

// Parse decodes YAML and applies defaults without touching the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownTimeoutSeconds <= 0 {
		c.HTTP.ShutdownTimeoutSeconds = 5
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "flightbooking"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Booking.FlightsCacheTTL <= 0 {
		c.Booking.FlightsCacheTTL = 30
	}
	if c.Kafka.BookingTopic == "" {
		c.Kafka.BookingTopic = "booking-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "flightbooking-worker"
	}
	if c.Worker.PromoSweepSchedule == "" {
		c.Worker.PromoSweepSchedule = "*/5 * * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("DATABASE_PASSWORD"); ok {
		c.Database.Password = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := lookup("JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
}
