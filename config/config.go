package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTP     HTTP
	Postgres Postgres
	Redis    Redis
	Quotes   Quotes
	Session  Session
	Jobs     Jobs

	// PasswordPolicyStrict enforces the length and character class rule on new passwords.
	PasswordPolicyStrict bool `env:"PASSWORD_POLICY_STRICT" envDefault:"true"`
}

type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Postgres struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD"`
	DbName          string        `env:"DB_NAME" envDefault:"finance"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	TimeZone        string        `env:"DB_TIMEZONE" envDefault:"UTC"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	MigrationsDir   string        `env:"DB_MIGRATIONS_DIR"`
}

// DSN renders the connection string understood by the postgres driver.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		p.Host,
		p.User,
		p.Password,
		p.DbName,
		p.Port,
		p.SSLMode,
		p.TimeZone,
	)
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Quotes struct {
	APIKey   string        `env:"API_KEY,required,notEmpty"`
	URL      string        `env:"QUOTE_API_URL" envDefault:"https://www.alphavantage.co"`
	Timeout  time.Duration `env:"QUOTE_API_TIMEOUT" envDefault:"10s"`
	Debug    bool          `env:"QUOTE_API_DEBUG" envDefault:"false"`
	CacheTTL time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"5m"`
}

type Session struct {
	Secret       string        `env:"SESSION_SECRET,required,notEmpty"`
	TTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieName   string        `env:"SESSION_COOKIE" envDefault:"session"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

type Jobs struct {
	// PriceSnapshotInterval of zero disables the snapshot job.
	PriceSnapshotInterval time.Duration `env:"PRICE_SNAPSHOT_INTERVAL" envDefault:"1h"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// MustLoad is Load for main: the process refuses to start without its required keys.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("parse config error: %s", err)
	}
	return cfg
}

// InitRedis opens the Redis connection and fails fast if the server is unreachable.
func InitRedis(ctx context.Context, cfg Redis) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return rdb, nil
}
