package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv              string
	HTTPAddr            string
	MetricsAddr         string
	RedisAddr           string
	RedisDB             int
	RedisPass           string
	StripeBase          string
	StripeKey           string
	StripePriceID       string
	StripeWebhookSecret string
	StripeRPS           int
	CacheTTL            time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:              env("APP_ENV", "prod"),
		HTTPAddr:            env("HTTP_ADDR", ":8080"),
		MetricsAddr:         env("METRICS_ADDR", ":9100"),
		RedisAddr:           env("REDIS_ADDR", "localhost:6379"),
		RedisPass:           env("REDIS_PASSWORD", ""),
		RedisDB:             atoi("REDIS_DB", 0),
		StripeBase:          env("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeKey:           env("STRIPE_SECRET_KEY", ""),
		StripePriceID:       env("STRIPE_SUBSCRIPTION_PRICE_ID", ""),
		StripeWebhookSecret: env("STRIPE_WEBHOOK_SECRET", ""),
		StripeRPS:           atoi("STRIPE_RPS", 5),
		CacheTTL:            time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.StripeKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty")
	}
	if c.StripeWebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET is empty; webhook deliveries will be rejected")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
