package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultQueueKey    = "area-picker:selections"
	defaultMaxAttempts = 3
)

type RedisConfig struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	QueueKey    string
}

type TelegramConfig struct {
	APIToken string
	BaseURL  string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env from the working directory if present. Real environment wins.
func Load() {
	_ = godotenv.Load()
}

func GetHTTPAddr() string {
	return getEnv("HTTP_ADDR", defaultHTTPAddr)
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        os.Getenv("REDIS_ADDR"),
		Password:    os.Getenv("REDIS_PASSWORD"),
		User:        os.Getenv("REDIS_USER"),
		DB:          getInt("REDIS_DB", 0),
		MaxRetries:  getInt("REDIS_MAX_RETRIES", 0),
		DialTimeout: getDuration("REDIS_DIAL_TIMEOUT", 0),
		Timeout:     getDuration("REDIS_TIMEOUT", 0),
		QueueKey:    getEnv("REDIS_QUEUE_KEY", defaultQueueKey),
	}
}

func GetWebhookURL() string {
	return os.Getenv("HOST_WEBHOOK_URL")
}

func GetWebhookMaxAttempts() int {
	n := getInt("WEBHOOK_MAX_ATTEMPTS", defaultMaxAttempts)
	if n <= 0 {
		return defaultMaxAttempts
	}
	return n
}

func GetWebhookRetryBackoff() time.Duration {
	return getDuration("WEBHOOK_RETRY_BACKOFF", 2*time.Second)
}

func GetTelegramConfig() TelegramConfig {
	return TelegramConfig{
		APIToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		BaseURL:  os.Getenv("TELEGRAM_API_URL"),
	}
}

func GetLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: os.Getenv("LOG_FORMAT"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}
