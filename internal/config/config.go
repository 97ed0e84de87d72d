package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Media     MediaConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Websocket WebsocketConfig
	Logging   LoggingConfig
	Features  FeatureFlags
	PublicApp PublicAppConfig
	Orders    OrdersConfig
}

type ServerConfig struct {
	Port            int
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	OrdersTopic   string
	PaymentsTopic string
	ConsumerGroup string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

// MediaConfig holds the Cloudinary credentials used for image uploads.
type MediaConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	// PublicOrders uses the limiter format, e.g. "30-M" for 30 per minute.
	PublicOrders string
}

type WebsocketConfig struct {
	QueueSize int
	MaxDrops  int
	Channel   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type FeatureFlags struct {
	EnableKafka      bool
	EnableCache      bool
	EnableRedisRelay bool
	AutoMigrate      bool
}

type PublicAppConfig struct {
	BaseURL string
}

// OrdersConfig holds order numbering settings. DayLocation decides where
// the daily order number sequence restarts.
type OrdersConfig struct {
	DayLocation *time.Location
}

// ErrMissingJWTSecret is returned by Load when JWT_SECRET is not set.
var ErrMissingJWTSecret = errors.New("config: JWT_SECRET is required")

// Load reads configuration from the environment, after loading a .env
// file if one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 8080),
			Mode:            getEnvString("GIN_MODE", "release"),
			ReadTimeout:     time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("SERVER_SHUTDOWN_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "acme"),
			Password:     getEnvString("DB_PASSWORD", "acme"),
			Name:         getEnvString("DB_NAME", "acme_restaurants"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic:   getEnvString("KAFKA_ORDERS_TOPIC", "restaurant.orders"),
			PaymentsTopic: getEnvString("KAFKA_PAYMENTS_TOPIC", "restaurant.payments"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "restaurant-service"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvString("JWT_SECRET", ""),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
			Issuer:    getEnvString("JWT_ISSUER", "restaurant-service"),
		},
		Media: MediaConfig{
			CloudName: getEnvString("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnvString("CLOUDINARY_API_KEY", ""),
			APISecret: getEnvString("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnvString("CLOUDINARY_FOLDER", "restaurants"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			PublicOrders: getEnvString("RATE_LIMIT_PUBLIC_ORDERS", "30-M"),
		},
		Websocket: WebsocketConfig{
			QueueSize: getEnvInt("WS_QUEUE_SIZE", 64),
			MaxDrops:  getEnvInt("WS_MAX_DROPS", 8),
			Channel:   getEnvString("WS_RELAY_CHANNEL", "restaurant:events"),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Features: FeatureFlags{
			EnableKafka:      getEnvBool("FEATURE_KAFKA", false),
			EnableCache:      getEnvBool("FEATURE_CACHE", true),
			EnableRedisRelay: getEnvBool("FEATURE_REDIS_RELAY", false),
			AutoMigrate:      getEnvBool("FEATURE_AUTO_MIGRATE", true),
		},
		PublicApp: PublicAppConfig{
			BaseURL: strings.TrimRight(getEnvString("PUBLIC_APP_URL", "http://localhost:3000"), "/"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	loc, err := time.LoadLocation(getEnvString("ORDER_DAY_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("config: ORDER_DAY_TIMEZONE: %w", err)
	}
	cfg.Orders.DayLocation = loc

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
