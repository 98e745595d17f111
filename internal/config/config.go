package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/hotel-lister/internal/hotelbeds"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	MigrationsDir string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Hotelbeds          hotelbeds.Credentials
	HotelbedsContent   string
	HotelbedsBooking   string
	UpstreamTimeout    time.Duration
	UpstreamMaxRetries int

	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

// Load reads the configuration through getenv (os.Getenv in production).
// Every missing or malformed variable is reported in the returned error.
func Load(getenv func(string) string) (*Config, error) {
	l := loader{getenv: getenv}

	cfg := &Config{
		Port:          l.str("PORT", "8080"),
		DatabaseURL:   l.required("DATABASE_URL"),
		RedisURL:      l.required("REDIS_URL"),
		MigrationsDir: l.str("MIGRATIONS_DIR", "migrations"),

		JWTSecret:       l.required("JWT_SECRET"),
		AccessTokenTTL:  l.duration("ACCESS_TOKEN_TTL", 60*time.Minute),
		RefreshTokenTTL: l.duration("REFRESH_TOKEN_TTL", 24*time.Hour),

		Hotelbeds: hotelbeds.Credentials{
			Key:    l.required("HOTELBEDS_API_KEY"),
			Secret: l.required("HOTELBEDS_SECRET"),
		},
		HotelbedsContent:   l.str("HOTELBEDS_CONTENT_URL", hotelbeds.DefaultContentURL),
		HotelbedsBooking:   l.str("HOTELBEDS_BOOKING_URL", hotelbeds.DefaultBookingURL),
		UpstreamTimeout:    l.duration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamMaxRetries: l.integer("UPSTREAM_MAX_RETRIES", 2),

		RateLimitPerMinute: l.integer("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins: l.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	if err := errors.Join(l.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogValue keeps secrets and connection strings out of logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("port", c.Port),
		slog.String("migrations_dir", c.MigrationsDir),
		slog.String("hotelbeds_content_url", c.HotelbedsContent),
		slog.String("hotelbeds_booking_url", c.HotelbedsBooking),
		slog.Duration("upstream_timeout", c.UpstreamTimeout),
		slog.Int("upstream_max_retries", c.UpstreamMaxRetries),
		slog.Duration("access_token_ttl", c.AccessTokenTTL),
		slog.Duration("refresh_token_ttl", c.RefreshTokenTTL),
		slog.Int("rate_limit_per_minute", c.RateLimitPerMinute),
		slog.Any("cors_allowed_origins", c.CORSAllowedOrigins),
	)
}

type loader struct {
	getenv func(string) string
	errs   []error
}

func (l *loader) str(key, fallback string) string {
	if v := strings.TrimSpace(l.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (l *loader) required(key string) string {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		l.errs = append(l.errs, fmt.Errorf("required environment variable %s not set", key))
	}
	return v
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		l.errs = append(l.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return fallback
	}
	return d
}

func (l *loader) integer(key string, fallback int) int {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		l.errs = append(l.errs, fmt.Errorf("%s: invalid non-negative integer %q", key, raw))
		return fallback
	}
	return n
}

func (l *loader) list(key string, fallback []string) []string {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
