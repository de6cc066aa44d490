// Package config holds the runtime configuration read from the environment
// and the domain constants shared by the complaint workflow.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	LogLevel string

	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Storage  ObjectStoreConfig
	Events   EventsConfig
	Telegram TelegramConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// AllowedOrigins lists dashboard origins accepted on the WebSocket
	// handshake. Empty means same-origin only; "*" accepts any origin.
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AIConfig struct {
	GatewayURL string
	APIKey     string
	Model      string
	Timeout    time.Duration
}

type ObjectStoreConfig struct {
	// Driver is "gcs" or "disk".
	Driver          string
	Bucket          string
	CredentialsFile string
	DiskRoot        string
	PublicBaseURL   string
}

type EventsConfig struct {
	// Broker is "redis" or "rabbitmq".
	Broker      string
	RabbitMQURL string
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
	Language string
}

type AuthConfig struct {
	JWTSecret            string
	TokenTTL             time.Duration
	AdminRegistrationKey string
}

// Load reads the configuration from environment variables. Call godotenv.Load
// beforehand to pick up a local .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Addr:           getEnv("SERVER_ADDR", ":8080"),
			ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getList("ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		AI: AIConfig{
			GatewayURL: getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1/chat/completions"),
			APIKey:     os.Getenv("AI_API_KEY"),
			Model:      getEnv("AI_MODEL", "google/gemini-2.5-flash"),
			Timeout:    getDuration("AI_TIMEOUT", 30*time.Second),
		},
		Storage: ObjectStoreConfig{
			Driver:          getEnv("OBJECT_STORE_DRIVER", "disk"),
			Bucket:          os.Getenv("GCS_BUCKET"),
			CredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
			DiskRoot:        getEnv("EVIDENCE_DIR", "./evidence"),
			PublicBaseURL:   getEnv("EVIDENCE_BASE_URL", "http://localhost:8080/evidence"),
		},
		Events: EventsConfig{
			Broker:      getEnv("EVENTS_BROKER", "redis"),
			RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   int64(getInt("TELEGRAM_CHAT_ID", 0)),
			Language: getEnv("TELEGRAM_LANGUAGE", "en"),
		},
		Auth: AuthConfig{
			JWTSecret:            os.Getenv("JWT_SECRET"),
			TokenTTL:             getDuration("JWT_TTL", 72*time.Hour),
			AdminRegistrationKey: os.Getenv("ADMIN_REGISTRATION_KEY"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Database.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Database.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch c.Storage.Driver {
	case "disk":
	case "gcs":
		if c.Storage.Bucket == "" {
			return errors.New("GCS_BUCKET is required when OBJECT_STORE_DRIVER=gcs")
		}
	default:
		return fmt.Errorf("unknown OBJECT_STORE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Events.Broker {
	case "redis":
	case "rabbitmq":
		if c.Events.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required when EVENTS_BROKER=rabbitmq")
		}
	default:
		return fmt.Errorf("unknown EVENTS_BROKER %q", c.Events.Broker)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
