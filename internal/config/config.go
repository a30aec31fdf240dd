package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything read from the environment.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	Port            string        `mapstructure:"PORT" validate:"required,numeric"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required,url"`

	JWTSecret string        `mapstructure:"JWT_SECRET" validate:"required"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL" validate:"required"`

	CORSOrigin    string  `mapstructure:"CORS_ORIGIN" validate:"required"`
	FrontendURL   string  `mapstructure:"FRONTEND_URL" validate:"required,url"`
	AuthRateLimit float64 `mapstructure:"AUTH_RATE_LIMIT" validate:"gt=0"`

	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	MailProvider string `mapstructure:"MAIL_PROVIDER" validate:"omitempty,oneof=smtp plunk log"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM" validate:"required"`
	PlunkAPIKey  string `mapstructure:"PLUNK_API_KEY"`
	PlunkAPIURL  string `mapstructure:"PLUNK_API_URL" validate:"required,url"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket           string `mapstructure:"AWS_S3_BUCKET"`
	UploadDir          string `mapstructure:"UPLOAD_DIR" validate:"required"`
	MaxUploadBytes     int64  `mapstructure:"MAX_UPLOAD_BYTES" validate:"gt=0"`

	ReconcileAfter    time.Duration `mapstructure:"RECONCILE_AFTER" validate:"required"`
	ReconcileSchedule string        `mapstructure:"RECONCILE_SCHEDULE" validate:"required"`
}

var (
	keys = []string{
		"APP_ENV", "PORT", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"DATABASE_URL", "JWT_SECRET", "TOKEN_TTL",
		"CORS_ORIGIN", "FRONTEND_URL", "AUTH_RATE_LIMIT",
		"REDIS_ADDR", "REDIS_PASSWORD",
		"MAIL_PROVIDER", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
		"PLUNK_API_KEY", "PLUNK_API_URL",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
		"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_S3_BUCKET", "UPLOAD_DIR", "MAX_UPLOAD_BYTES",
		"RECONCILE_AFTER", "RECONCILE_SCHEDULE",
	}
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Load reads .env files (if present), binds the environment and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("SMTP_FROM", "support@distal.dev")
	v.SetDefault("PLUNK_API_URL", "https://api.useplunk.com/v1/send")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 50<<20)
	v.SetDefault("RECONCILE_AFTER", "30m")
	v.SetDefault("RECONCILE_SCHEDULE", "@every 10m")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	if c.MailProvider == "" {
		c.MailProvider = detectMailProvider(&c)
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

// MustLoad loads configuration or exits the process.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

func detectMailProvider(c *Config) string {
	switch {
	case c.PlunkAPIKey != "":
		return "plunk"
	case c.SMTPHost != "" && c.SMTPUsername != "":
		return "smtp"
	default:
		return "log"
	}
}

// IsDevelopment reports whether error details may be returned to clients.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// StripeEnabled reports whether hosted checkout can be used.
func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != ""
}

// S3Enabled reports whether deliverables go to object storage instead of local disk.
func (c *Config) S3Enabled() bool {
	return c.AWSAccessKeyID != "" && c.AWSSecretAccessKey != "" && c.S3Bucket != ""
}
