package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PublicURL   string
	PostgresDSN string
	RedisAddr   string

	JWTSecret   string
	JWTTokenTTL time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeBaseURL       string
	StripeTimeout       time.Duration

	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string

	TransactionFeeCents int64
	DownloadURLTTL      time.Duration

	EnableOrderPaidRelay      bool
	EnableReceiptSender       bool
	EnablePaymentConsumer     bool
	EnableEntitlementEviction bool
}

func Load() (Config, error) {
	// .env is optional; real deployments inject env vars directly.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "digitalhippo"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	publicURL := strings.TrimRight(os.Getenv("PUBLIC_URL"), "/")
	if publicURL == "" {
		publicURL = "http://localhost:3000"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PublicURL:   publicURL,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTokenTTL: envDuration("JWT_TOKEN_TTL", 24*time.Hour),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeBaseURL:       envDefault("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeTimeout:       envDuration("STRIPE_TIMEOUT", 10*time.Second),

		S3Bucket:   os.Getenv("S3_BUCKET"),
		S3Region:   envDefault("S3_REGION", "us-east-1"),
		S3Key:      os.Getenv("S3_KEY"),
		S3Secret:   os.Getenv("S3_SECRET"),
		S3Endpoint: os.Getenv("S3_ENDPOINT"),

		TransactionFeeCents: envInt64("TRANSACTION_FEE_CENTS", 100),
		DownloadURLTTL:      envDuration("DOWNLOAD_URL_TTL", 15*time.Minute),

		EnableOrderPaidRelay:      envBool("ENABLE_ORDER_PAID_RELAY", true),
		EnableReceiptSender:       envBool("ENABLE_RECEIPT_SENDER", true),
		EnablePaymentConsumer:     envBool("ENABLE_PAYMENT_CONSUMER", true),
		EnableEntitlementEviction: envBool("ENABLE_ENTITLEMENT_EVICTION", true),
	}, nil
}

func envDefault(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt64(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
