package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the loaded configuration
type Config struct {
	Env            string
	Port           string
	BackendURL     string
	RequestTimeout time.Duration

	RedisURL     string
	SessionTTL   time.Duration
	CartTTL      time.Duration
	CookieName   string
	CookieSecure bool

	SessionSweepInterval time.Duration

	AllowFallbackCashier bool
	FallbackCashierID    int64
	RefreshTimeout       time.Duration

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	AllowedOrigins []string

	CloudWatchEnabled bool
	EventsBackend     string
	SNSTopicARN       string
	KafkaBrokers      []string
	KafkaTopic        string
}

// Load reads the .env file if present and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8000"),
		BackendURL:     strings.TrimSuffix(getEnv("BACKEND_URL", "http://localhost:3000"), "/"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),

		RedisURL:     getEnv("REDIS_URL", ""),
		SessionTTL:   getDuration("SESSION_TTL", 24*time.Hour),
		CartTTL:      getDuration("CART_TTL", 12*time.Hour),
		CookieName:   getEnv("SESSION_COOKIE", "pos_session"),
		CookieSecure: getBool("COOKIE_SECURE", false),

		SessionSweepInterval: getDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),

		AllowFallbackCashier: getBool("ALLOW_FALLBACK_CASHIER", false),
		FallbackCashierID:    getInt64("FALLBACK_CASHIER_ID", 2),
		RefreshTimeout:       getDuration("CATALOG_REFRESH_TIMEOUT", 10*time.Second),

		BreakerMaxFailures: uint32(getInt64("BREAKER_MAX_FAILURES", 5)),
		BreakerOpenTimeout: getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		CloudWatchEnabled: getBool("CLOUDWATCH_ENABLED", false),
		EventsBackend:     strings.ToLower(getEnv("EVENTS_BACKEND", "none")),
		SNSTopicARN:       getEnv("SNS_SALES_TOPIC_ARN", ""),
		KafkaBrokers:      getList("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "sales.completed"),
	}
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid duration for %s=%q, using %s", key, raw, defaultVal)
		return defaultVal
	}
	return d
}

func getBool(key string, defaultVal bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid bool for %s=%q, using %t", key, raw, defaultVal)
		return defaultVal
	}
	return b
}

func getInt64(key string, defaultVal int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid integer for %s=%q, using %d", key, raw, defaultVal)
		return defaultVal
	}
	return n
}

func getList(key string, defaultVal []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(strings.TrimSuffix(part, "/")); p != "" {
			out = append(out, p)
		}
	}
	return out
}
