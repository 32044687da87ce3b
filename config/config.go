package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Port string `mapstructure:"PORT"`

	DBDriver   string `mapstructure:"DB_DRIVER"` // postgres, mysql, sqlite
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBDsn      string `mapstructure:"DB_DSN"` // overrides the fields above when set
	DBLogLevel string `mapstructure:"DB_LOG_LEVEL"`

	JWTKey string `mapstructure:"JWT_SECRET_KEY"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	SendgridAPIKey  string `mapstructure:"SENDGRID_API_KEY"`
	EmailSender     string `mapstructure:"EMAIL_SENDER"`
	EmailSenderName string `mapstructure:"EMAIL_SENDER_NAME"`
	SiteURL         string `mapstructure:"SITE_URL"`

	NotifyWebhookURL string `mapstructure:"NOTIFY_WEBHOOK_URL"`
	NotifyEachLesson bool   `mapstructure:"NOTIFY_EACH_LESSON"`

	NotificationRetentionDays int    `mapstructure:"NOTIFICATION_RETENTION_DAYS"`
	RetentionCron             string `mapstructure:"RETENTION_CRON"`

	QuizSubmitLimit int `mapstructure:"QUIZ_SUBMIT_LIMIT"` // submissions per minute per client
}

var defaults = map[string]interface{}{
	"PORT":                        "3000",
	"DB_DRIVER":                   "postgres",
	"DB_HOST":                     "localhost",
	"DB_PORT":                     "5432",
	"DB_USER":                     "postgres",
	"DB_PASSWORD":                 "",
	"DB_NAME":                     "lms",
	"DB_DSN":                      "",
	"DB_LOG_LEVEL":                "warn",
	"JWT_SECRET_KEY":              "defaultSecret",
	"REDIS_ADDR":                  "",
	"CATALOG_CACHE_TTL":           "10m",
	"SENDGRID_API_KEY":            "",
	"EMAIL_SENDER":                "no-reply@lms.local",
	"EMAIL_SENDER_NAME":           "LMS",
	"SITE_URL":                    "http://localhost:3000",
	"NOTIFY_WEBHOOK_URL":          "",
	"NOTIFY_EACH_LESSON":          false,
	"NOTIFICATION_RETENTION_DAYS": 90,
	"RETENTION_CRON":              "0 3 * * *",
	"QUIZ_SUBMIT_LIMIT":           20,
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if cfg.SendgridAPIKey == "" {
		log.Println("Warning: SENDGRID_API_KEY not set. Certificate emails are disabled.")
	}
	if cfg.NotificationRetentionDays < 1 {
		log.Printf("Warning: NOTIFICATION_RETENTION_DAYS=%d is invalid, using 90", cfg.NotificationRetentionDays)
		cfg.NotificationRetentionDays = 90
	}

	return cfg, nil
}
