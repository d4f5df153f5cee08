package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnv sync.Once

// Config reads an environment variable, loading .env on the first call.
func Config(key string) string {
	loadEnv.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using system environment")
		}
	})
	return os.Getenv(key)
}

func ConfigDefault(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Settings struct {
	Port        string
	AppURL      string
	CorsOrigins string
	JWTSecret   string

	Database      Database
	RedisAddr     string
	RedisPassword string

	RazorpayKeyID     string
	RazorpayKeySecret string
	Currency          string
	GatewayTimeout    time.Duration

	SMTP        SMTP
	MailTimeout time.Duration

	KafkaBrokers    []string
	KafkaOrderTopic string

	PendingPaymentTTL time.Duration
	SeedDemo          bool
}

// Load builds the typed settings used to wire the application.
func Load() Settings {
	return Settings{
		Port:        ConfigDefault("APP_PORT", "8002"),
		AppURL:      ConfigDefault("APP_URL", "http://localhost:8002"),
		CorsOrigins: ConfigDefault("CORS_ORIGINS", "http://localhost:5173"),
		JWTSecret:   Config("JWT_SECRET"),
		Database: Database{
			Host:     ConfigDefault("DB_HOST", "localhost"),
			Port:     intValue("DB_PORT", 5432),
			User:     ConfigDefault("DB_USER", "postgres"),
			Password: ConfigDefault("DB_PASSWORD", "postgres"),
			Name:     ConfigDefault("DB_NAME", "storefront"),
		},
		RedisAddr:         ConfigDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     Config("REDIS_PASSWORD"),
		RazorpayKeyID:     Config("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: Config("RAZORPAY_KEY_SECRET"),
		Currency:          ConfigDefault("PAYMENT_CURRENCY", "INR"),
		GatewayTimeout:    durationValue("GATEWAY_TIMEOUT", 10*time.Second),
		SMTP: SMTP{
			Host:     Config("SMTP_HOST"),
			Port:     intValue("SMTP_PORT", 587),
			Username: Config("SMTP_USERNAME"),
			Password: Config("SMTP_PASSWORD"),
			From:     ConfigDefault("SMTP_FROM", "Storefront <no-reply@storefront.local>"),
		},
		MailTimeout:       durationValue("MAIL_TIMEOUT", 10*time.Second),
		KafkaBrokers:      listValue("KAFKA_BROKERS"),
		KafkaOrderTopic:   ConfigDefault("KAFKA_ORDER_TOPIC", "order.placed"),
		PendingPaymentTTL: durationValue("PENDING_PAYMENT_TTL", 30*time.Minute),
		SeedDemo:          Config("SEED_DEMO") == "true",
	}
}

func intValue(key string, fallback int) int {
	v := Config(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func durationValue(key string, fallback time.Duration) time.Duration {
	v := Config(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func listValue(key string) []string {
	var out []string
	for _, part := range strings.Split(Config(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
