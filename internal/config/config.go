package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Log       LogConfig
	Runtime   RuntimeConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
	// MaxPoolSize and MaxConnIdle bound the shared client's connection pool.
	MaxPoolSize uint64
	MaxConnIdle time.Duration
	// DialPerRequest opens and closes a client on every query instead of sharing one.
	DialPerRequest bool
}

type LogConfig struct {
	Level         string
	FlushInterval time.Duration
}

// RuntimeConfig describes where the process runs.
type RuntimeConfig struct {
	// Container is true under a managed container runtime (Cloud Run sets K_SERVICE).
	Container bool
	Project   string
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port for the Redis client.
func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

// Addr returns the listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%s", s.Host, s.Port) }

// LoadConfig loads configuration from environment variables and optional .env files.
// Without arguments it looks for ".env" in the working directory.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.AutomaticEnv()
	// Cloud Run injects PORT
	_ = v.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 5)
	v.SetDefault("MONGODB_DATABASE", "laserUser")
	v.SetDefault("MONGODB_COLLECTION", "users")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_MAX_POOL_SIZE", 10)
	v.SetDefault("MONGODB_MAX_CONN_IDLE", 300)
	v.SetDefault("MONGODB_DIAL_PER_REQUEST", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FLUSH_INTERVAL_MS", 1000)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("REDIS_PORT", "6379")

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout:    time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:            strings.TrimSpace(v.GetString("MONGODB_URI")),
			Database:       v.GetString("MONGODB_DATABASE"),
			Collection:     v.GetString("MONGODB_COLLECTION"),
			Timeout:        time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			MaxPoolSize:    v.GetUint64("MONGODB_MAX_POOL_SIZE"),
			MaxConnIdle:    time.Duration(v.GetInt("MONGODB_MAX_CONN_IDLE")) * time.Second,
			DialPerRequest: v.GetBool("MONGODB_DIAL_PER_REQUEST"),
		},
		Log: LogConfig{
			Level:         v.GetString("LOG_LEVEL"),
			FlushInterval: time.Duration(v.GetInt("LOG_FLUSH_INTERVAL_MS")) * time.Millisecond,
		},
		Runtime: RuntimeConfig{
			Container: v.GetString("K_SERVICE") != "" || strings.EqualFold(v.GetString("RUNTIME_MODE"), "container"),
			Project:   v.GetString("GOOGLE_CLOUD_PROJECT"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects values the service cannot run with. A missing MONGODB_URI is
// not an error here: the document route reports it per request.
func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT must not be empty")
	}
	if c.MongoDB.Database == "" || c.MongoDB.Collection == "" {
		return fmt.Errorf("MONGODB_DATABASE and MONGODB_COLLECTION must not be empty")
	}
	if c.MongoDB.Timeout <= 0 {
		return fmt.Errorf("MONGODB_TIMEOUT must be positive, got %s", c.MongoDB.Timeout)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 0) {
		return fmt.Errorf("invalid rate limit: rps=%v burst=%d", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	if c.RateLimit.Enabled && c.RateLimit.UseRedis && c.Redis.Host == "" {
		return fmt.Errorf("RATE_LIMIT_USE_REDIS requires REDIS_HOST")
	}
	return nil
}
