package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Shop      ShopConfig
	Mail      MailConfig
	Storage   StorageConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
	PublicBaseURL  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string
}

// DSN builds a postgres connection URL accepted by pgx.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode, d.Schema)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

type ShopConfig struct {
	OrderPrefix string
	Timezone    string
	CartTTL     time.Duration
}

// Location resolves the shop timezone, falling back to UTC+7.
func (s ShopConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

type MailConfig struct {
	ResendAPIKey   string
	From           string
	OrderStatusURL string
}

type StorageConfig struct {
	UploadDir  string
	PublicPath string
}

type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
}

type RateLimitConfig struct {
	CheckoutPerMinute int
	WebhookPerMinute  int
}

// Load reads configuration from flags, the env file and the process environment, in
// increasing order of precedence for the environment.
func Load() *Config {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit command line arguments.
func LoadArgs(args []string) *Config {
	flags := pflag.NewFlagSet("api", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "path to the env file")
	port := flags.String("port", "", "HTTP port, overrides SERVER_PORT")
	if err := flags.Parse(args); err != nil {
		log.Printf("Warning: Could not parse flags: %v", err)
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: Could not load env file %s: %v", *envFile, err)
	}

	v := viper.New()
	v.SetConfigFile(*envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	if *port != "" {
		v.Set("SERVER_PORT", *port)
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
			Schema:   v.GetString("DB_SCHEMA"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  v.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: v.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Shop: ShopConfig{
			OrderPrefix: v.GetString("SHOP_ORDER_PREFIX"),
			Timezone:    v.GetString("SHOP_TIMEZONE"),
			CartTTL:     v.GetDuration("SHOP_CART_TTL"),
		},
		Mail: MailConfig{
			ResendAPIKey:   v.GetString("RESEND_API_KEY"),
			From:           v.GetString("RESEND_FROM"),
			OrderStatusURL: v.GetString("ORDER_STATUS_URL"),
		},
		Storage: StorageConfig{
			UploadDir:  v.GetString("STORAGE_UPLOAD_DIR"),
			PublicPath: v.GetString("STORAGE_PUBLIC_PATH"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(v.GetString("KAFKA_BROKERS")),
			OrderTopic: v.GetString("KAFKA_ORDER_TOPIC"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("OTEL_ENABLED"),
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		RateLimit: RateLimitConfig{
			CheckoutPerMinute: v.GetInt("RATE_LIMIT_CHECKOUT"),
			WebhookPerMinute:  v.GetInt("RATE_LIMIT_WEBHOOK"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "https://wishyoulucky.page")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRY", 15)
	v.SetDefault("JWT_REFRESH_EXPIRY", 7)
	v.SetDefault("SHOP_ORDER_PREFIX", "WLK")
	v.SetDefault("SHOP_TIMEZONE", "Asia/Bangkok")
	v.SetDefault("SHOP_CART_TTL", "720h")
	v.SetDefault("RESEND_FROM", "Wishyoulucky <notify@wishyoulucky.page>")
	v.SetDefault("ORDER_STATUS_URL", "https://wishyoulucky.page/order-status")
	v.SetDefault("STORAGE_UPLOAD_DIR", "uploads")
	v.SetDefault("STORAGE_PUBLIC_PATH", "/uploads")
	v.SetDefault("KAFKA_ORDER_TOPIC", "orders")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "wishyoulucky-api")
	v.SetDefault("RATE_LIMIT_CHECKOUT", 10)
	v.SetDefault("RATE_LIMIT_WEBHOOK", 30)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
