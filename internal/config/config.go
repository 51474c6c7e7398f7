package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Container struct {
		App         *App
		Token       *Token
		DB          *DB
		HTTP        *HTTP
		Redis       *Redis
		NATS        *NATS
		Store       *Store
		Coordinator *Coordinator
		Rent        *Rent
		Region      *Region
	}

	App struct {
		Name     string
		Env      string
		LogLevel string
	}

	Token struct {
		Secret string
	}

	DB struct {
		Host          string
		Port          string
		User          string
		Password      string
		Name          string
		SSLMode       string
		MigrationsDir string
	}

	HTTP struct {
		Env            string
		Port           string
		AllowedOrigins string
		URL            string
	}

	// Redis with an empty Address falls back to the in-process cache and leases.
	Redis struct {
		Address  string
		Password string
		DB       int
	}

	// NATS with an empty URL disables event publishing.
	NATS struct {
		URL  string
		Name string
	}

	Store struct {
		// Driver is "postgres" or "memory".
		Driver              string
		BreakerMaxFailures  uint32
		BreakerTimeout      time.Duration
		BreakerInterval     time.Duration
		BreakerHalfOpenReqs uint32
	}

	Coordinator struct {
		LeaseTTL          time.Duration
		CounterMaxRetries int
		CounterBackoff    time.Duration
		ReconcileInterval time.Duration
	}

	Rent struct {
		PerDay int64
	}

	Region struct {
		Timezone string
	}
)

func defaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "caption-mobility-dashboard")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MIGRATIONS_DIR", "./internal/adapter/postgres/migrations")
	v.SetDefault("HTTP_URL", "")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NATS_NAME", "caption-mobility-dashboard")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("STORE_BREAKER_MAX_FAILURES", 5)
	v.SetDefault("STORE_BREAKER_TIMEOUT", "30s")
	v.SetDefault("STORE_BREAKER_INTERVAL", "60s")
	v.SetDefault("STORE_BREAKER_HALF_OPEN_REQUESTS", 1)
	v.SetDefault("LEASE_TTL", "10s")
	v.SetDefault("COUNTER_MAX_RETRIES", 10)
	v.SetDefault("COUNTER_BACKOFF", "20ms")
	v.SetDefault("RECONCILE_INTERVAL", "5m")
	v.SetDefault("RENT_PER_DAY", 100)
	v.SetDefault("REGION_TIMEZONE", "Asia/Kolkata")
}

// New reads configuration from the environment, loading .env first outside production.
func New() (*Container, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Container, error) {
	cfg := &Container{
		App: &App{
			Name:     v.GetString("APP_NAME"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Token: &Token{
			Secret: v.GetString("TOKEN_SECRET"),
		},
		DB: &DB{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Name:          v.GetString("DB_NAME"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
		},
		HTTP: &HTTP{
			Env:            v.GetString("APP_ENV"),
			Port:           v.GetString("HTTP_PORT"),
			AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
			URL:            v.GetString("HTTP_URL"),
		},
		Redis: &Redis{
			Address:  v.GetString("REDIS_ADDRESS"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		NATS: &NATS{
			URL:  v.GetString("NATS_URL"),
			Name: v.GetString("NATS_NAME"),
		},
		Store: &Store{
			Driver:              v.GetString("STORE_DRIVER"),
			BreakerMaxFailures:  v.GetUint32("STORE_BREAKER_MAX_FAILURES"),
			BreakerTimeout:      v.GetDuration("STORE_BREAKER_TIMEOUT"),
			BreakerInterval:     v.GetDuration("STORE_BREAKER_INTERVAL"),
			BreakerHalfOpenReqs: v.GetUint32("STORE_BREAKER_HALF_OPEN_REQUESTS"),
		},
		Coordinator: &Coordinator{
			LeaseTTL:          v.GetDuration("LEASE_TTL"),
			CounterMaxRetries: v.GetInt("COUNTER_MAX_RETRIES"),
			CounterBackoff:    v.GetDuration("COUNTER_BACKOFF"),
			ReconcileInterval: v.GetDuration("RECONCILE_INTERVAL"),
		},
		Rent: &Rent{
			PerDay: v.GetInt64("RENT_PER_DAY"),
		},
		Region: &Region{
			Timezone: v.GetString("REGION_TIMEZONE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Container) validate() error {
	if c.Token.Secret == "" {
		return errors.New("TOKEN_SECRET is required")
	}
	switch c.Store.Driver {
	case "postgres":
		if c.DB.Name == "" || c.DB.User == "" {
			return errors.New("DB_NAME and DB_USER are required for the postgres store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Coordinator.CounterMaxRetries < 1 {
		return errors.New("COUNTER_MAX_RETRIES must be at least 1")
	}
	if c.Rent.PerDay < 0 {
		return errors.New("RENT_PER_DAY must not be negative")
	}
	if _, err := c.Region.Location(); err != nil {
		return err
	}
	return nil
}

// DSN builds a lib/pq connection URL.
func (d *DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Location is the timezone that decides which day a swap counts towards.
func (r *Region) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REGION_TIMEZONE %q: %w", r.Timezone, err)
	}
	return loc, nil
}
