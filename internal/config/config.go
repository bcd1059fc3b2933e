package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	// Managed clinic backend (appointments, slots, eligibility rules).
	BackendBaseURL string
	BackendAPIKey  string
	BackendTimeout time.Duration

	// WhatsApp gateway.
	WAGatewayBaseURL  string
	WAGatewayAPIKey   string
	WAGatewayInstance string
	WAGatewayTimeout  time.Duration

	// Eligibility cache.
	EligibilityCacheTTL     time.Duration
	EligibilityCacheBackend string // "memory" or "redis"

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Notification dispatch.
	UseMemoryQueue       bool
	NotifyQueueURL       string
	NotifyQueueBuffer    int
	NotifyWorkerCount    int
	RetryMaxAutoAttempts int
	RetryInterval        time.Duration
	RetryBatchSize       int

	AdminJWTSecret string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// SendGrid operator alerts (exhausted notification retries).
	SendGridAPIKey      string
	SendGridFromEmail   string
	SendGridFromName    string
	OperatorAlertEmails string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", ""),
		BackendAPIKey:  getEnv("BACKEND_API_KEY", ""),
		BackendTimeout: getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),

		WAGatewayBaseURL:  getEnv("WA_GATEWAY_BASE_URL", ""),
		WAGatewayAPIKey:   getEnv("WA_GATEWAY_API_KEY", ""),
		WAGatewayInstance: getEnv("WA_GATEWAY_INSTANCE", "clinic"),
		WAGatewayTimeout:  getEnvAsDuration("WA_GATEWAY_TIMEOUT", 10*time.Second),

		EligibilityCacheTTL:     getEnvAsDuration("ELIGIBILITY_CACHE_TTL", 60*time.Second),
		EligibilityCacheBackend: getEnv("ELIGIBILITY_CACHE_BACKEND", "memory"),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", true),
		NotifyQueueURL:       getEnv("NOTIFY_QUEUE_URL", ""),
		NotifyQueueBuffer:    getEnvAsInt("NOTIFY_QUEUE_BUFFER", 128),
		NotifyWorkerCount:    getEnvAsInt("NOTIFY_WORKER_COUNT", 2),
		RetryMaxAutoAttempts: getEnvAsInt("NOTIFY_RETRY_MAX_AUTO_ATTEMPTS", 3),
		RetryInterval:        getEnvAsDuration("NOTIFY_RETRY_INTERVAL", 1*time.Minute),
		RetryBatchSize:       getEnvAsInt("NOTIFY_RETRY_BATCH_SIZE", 25),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "Clinic Portal"),
		OperatorAlertEmails: getEnv("OPERATOR_ALERT_EMAILS", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
