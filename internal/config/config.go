package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Both processes (bot and admin) load the same struct; each reads the
// subset it needs.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	VerificationBackend string // "dynamo" | "file"
	VerificationTable   string
	VerificationFile    string

	S3BucketName string

	NotifyWebhookURL string
	NotifySMSTo      string
	NotifyEmailTo    string
	SNSRegion        string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	AdminBaseURL       string
	AdminPassword      string // dev fallback, hashed at startup
	AdminPasswordHash  string // bcrypt hash, takes precedence when set
	AdminSessionSecret string
	AdminSessionTTL    time.Duration

	PollInterval       time.Duration // publisher wait-loop tick
	ResolutionDeadline time.Duration // max wait before a pending request expires
	WatchInterval      time.Duration // admin-side pending-count poll tick
	SweepSchedule      string        // cron spec for the maintenance sweep
	RetentionMaxAge    time.Duration // terminal records older than this are purged

	OpenAIAPIKey string

	PlatformUsername string
	PlatformPassword string
	PlatformEmail    string
	BrowserHeadless  bool
	CookieFile       string

	PostMessage  string
	PostInterval time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		VerificationBackend: getEnv("VERIFICATION_BACKEND", "dynamo"),
		VerificationTable:   getEnv("DYNAMO_TABLE_VERIFICATIONS", "verification_requests"),
		VerificationFile:    getEnv("VERIFICATION_FILE", "./static/verifications.json"),

		S3BucketName: getEnv("S3_BUCKET_NAME", "autopost-screenshots"),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifySMSTo:      getEnv("NOTIFY_SMS_TO", ""),
		NotifyEmailTo:    getEnv("NOTIFY_EMAIL_TO", ""),
		SNSRegion:        getEnv("SNS_REGION", "us-east-1"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AdminBaseURL:       getEnv("ADMIN_BASE_URL", "http://localhost:3000"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminSessionSecret: getEnv("ADMIN_SESSION_SECRET", ""),
		AdminSessionTTL:    getEnvDuration("ADMIN_SESSION_TTL", 12*time.Hour),

		PollInterval:       getEnvDuration("POLL_INTERVAL", 2*time.Second),
		ResolutionDeadline: getEnvDuration("RESOLUTION_DEADLINE", 30*time.Minute),
		WatchInterval:      getEnvDuration("WATCH_INTERVAL", 2*time.Second),
		SweepSchedule:      getEnv("SWEEP_SCHEDULE", "@every 10m"),
		RetentionMaxAge:    getEnvDuration("RETENTION_MAX_AGE", 24*time.Hour),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		PlatformUsername: getEnv("PLATFORM_USERNAME", ""),
		PlatformPassword: getEnv("PLATFORM_PASSWORD", ""),
		PlatformEmail:    getEnv("PLATFORM_EMAIL", ""),
		BrowserHeadless:  getEnvBool("BROWSER_HEADLESS", true),
		CookieFile:       getEnv("COOKIE_FILE", "./static/session_cookies.json"),

		PostMessage:  getEnv("POST_MESSAGE", ""),
		PostInterval: getEnvDuration("POST_INTERVAL", 0),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
