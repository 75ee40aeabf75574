package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Storage. StoreDriver is one of "memory", "mongo" or "postgres" and is
	// resolved once at startup.
	StoreDriver    string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	MongoDatabase  string        `mapstructure:"MONGO_DATABASE"`
	PostgresURL    string        `mapstructure:"POSTGRES_URL"`
	StorageTimeout time.Duration `mapstructure:"STORAGE_TIMEOUT"`
	StorageRetries int           `mapstructure:"STORAGE_RETRIES"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// RabbitMQ. An empty AMQPURL disables booking event mirroring.
	AMQPURL   string `mapstructure:"AMQP_URL"`
	AMQPQueue string `mapstructure:"AMQP_QUEUE"`

	// Payments.
	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	Currency            string `mapstructure:"CURRENCY"`
	PricePerPersonCents int64  `mapstructure:"PRICE_PER_PERSON_CENTS"`

	// Booking policy.
	SessionCapacity    int           `mapstructure:"SESSION_CAPACITY"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	CancellationCutoff time.Duration `mapstructure:"CANCELLATION_CUTOFF"`
	PendingExpiry      time.Duration `mapstructure:"PENDING_EXPIRY"`
	ExpirySweepEvery   string        `mapstructure:"EXPIRY_SWEEP_EVERY"`

	// Admin access.
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	AdminPasswordHash string        `mapstructure:"ADMIN_PASSWORD_HASH"`
	AdminTokenTTL     time.Duration `mapstructure:"ADMIN_TOKEN_TTL"`

	// Outbound mail. An empty SMTPHost logs messages instead of sending them.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("STORE_DRIVER", "memory")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "tourbooking")
	viper.SetDefault("POSTGRES_URL", "postgres://localhost:5432/tourbooking")
	viper.SetDefault("STORAGE_TIMEOUT", 5*time.Second)
	viper.SetDefault("STORAGE_RETRIES", 3)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("AMQP_QUEUE", "booking.events")
	viper.SetDefault("CURRENCY", "eur")
	viper.SetDefault("PRICE_PER_PERSON_CENTS", 16500)
	viper.SetDefault("SESSION_CAPACITY", 24)
	viper.SetDefault("TIMEZONE", "UTC")
	viper.SetDefault("CANCELLATION_CUTOFF", 24*time.Hour)
	viper.SetDefault("PENDING_EXPIRY", 2*time.Hour)
	viper.SetDefault("EXPIRY_SWEEP_EVERY", "@every 5m")
	viper.SetDefault("ADMIN_TOKEN_TTL", 12*time.Hour)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("MAIL_FROM", "bookings@localhost")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location resolves the operator's time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("unknown TIMEZONE %q, using UTC", c.Timezone)
		return time.UTC
	}
	return loc
}
