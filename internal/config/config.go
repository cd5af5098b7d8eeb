package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`

	// Database Configuration
	Database DatabaseConfig `mapstructure:"database"`

	MongoDB MongoDBConfig `mapstructure:"mongodb"`

	Auth AuthConfig `mapstructure:"auth"`

	// Notification Configuration
	Notification NotificationConfig `mapstructure:"notification"`

	DLP DLPConfig `mapstructure:"dlp"`

	// Logging Configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host             string `mapstructure:"host"`
	MediaServicePort string `mapstructure:"media_service_port"`
	NotifServicePort string `mapstructure:"notif_service_port"`
	NotifServiceAddr string `mapstructure:"notif_service_addr"` // where clients dial the notifier
	MediaBaseURL     string `mapstructure:"media_base_url"`
	Environment      string `mapstructure:"environment"` // development, staging, production
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DatabaseName string `mapstructure:"database_name"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type MongoDBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Bucket   string `mapstructure:"bucket"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	MediaURLSecret string        `mapstructure:"media_url_secret"`
	SignedURLTTL   time.Duration `mapstructure:"signed_url_ttl"`
	Token          string        `mapstructure:"token"` // bearer token used by CLI clients
}

// NotificationConfig contains change notifier configuration
type NotificationConfig struct {
	Workers           int  `mapstructure:"workers"`             // Number of worker goroutines
	ChannelBufferSize int  `mapstructure:"channel_buffer_size"` // Channel buffer size
	Enabled           bool `mapstructure:"enabled"`
}

type DLPConfig struct {
	MaskOnSend bool `mapstructure:"mask_on_send"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

var envBindings = map[string]string{
	"server.host":                      "SERVER_HOST",
	"server.media_service_port":        "MEDIA_SERVER_PORT",
	"server.notif_service_port":        "NOTIF_SERVICE_PORT",
	"server.notif_service_addr":        "NOTIF_SERVICE_ADDR",
	"server.media_base_url":            "MEDIA_BASE_URL",
	"server.environment":               "ENVIRONMENT",
	"database.host":                    "MYSQL_HOST",
	"database.port":                    "MYSQL_PORT",
	"database.username":                "MYSQL_USERNAME",
	"database.password":                "MYSQL_PASSWORD",
	"database.database_name":           "MYSQL_DATABASE",
	"database.max_open_conns":          "MYSQL_MAX_OPEN_CONNS",
	"database.max_idle_conns":          "MYSQL_MAX_IDLE_CONNS",
	"mongodb.host":                     "MONGO_HOST",
	"mongodb.port":                     "MONGO_PORT",
	"mongodb.username":                 "MONGO_USERNAME",
	"mongodb.password":                 "MONGO_PASSWORD",
	"mongodb.database":                 "MONGO_DATABASE",
	"mongodb.bucket":                   "MONGO_BUCKET",
	"auth.jwt_secret":                  "JWT_SECRET",
	"auth.media_url_secret":            "MEDIA_URL_SECRET",
	"auth.signed_url_ttl":              "SIGNED_URL_TTL",
	"auth.token":                       "GOCHAT_TOKEN",
	"notification.workers":             "NOTIF_WORKERS",
	"notification.channel_buffer_size": "NOTIF_BUFFER",
	"notification.enabled":             "NOTIF_ENABLED",
	"dlp.mask_on_send":                 "DLP_MASK_ON_SEND",
	"logging.level":                    "LOG_LEVEL",
	"logging.format":                   "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.media_service_port", "8080")
	v.SetDefault("server.notif_service_port", "7004")
	v.SetDefault("server.notif_service_addr", "")
	v.SetDefault("server.media_base_url", "")
	v.SetDefault("server.environment", "development")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.username", "gochat")
	v.SetDefault("database.password", "gochat123")
	v.SetDefault("database.database_name", "gochat")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("mongodb.host", "localhost")
	v.SetDefault("mongodb.port", "27017")
	v.SetDefault("mongodb.username", "admin")
	v.SetDefault("mongodb.password", "admin123")
	v.SetDefault("mongodb.database", "gochat")
	v.SetDefault("mongodb.bucket", "attachments")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.media_url_secret", "")
	v.SetDefault("auth.signed_url_ttl", 5*time.Minute)
	v.SetDefault("auth.token", "")

	v.SetDefault("notification.workers", 5)
	v.SetDefault("notification.channel_buffer_size", 1000)
	v.SetDefault("notification.enabled", true)

	v.SetDefault("dlp.mask_on_send", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// LoadConfig reads .env (if any), then environment variables over built-in defaults.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using system env variables")
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			log.Printf("cannot bind %s: %v", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		log.Fatalf("Failed to decode configuration: %v", err)
	}

	if cfg.Server.NotifServiceAddr == "" {
		cfg.Server.NotifServiceAddr = fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.NotifServicePort)
	}
	if cfg.Server.MediaBaseURL == "" {
		cfg.Server.MediaBaseURL = fmt.Sprintf("http://%s:%s/media/", cfg.Server.Host, cfg.Server.MediaServicePort)
	}
	if !strings.HasSuffix(cfg.Server.MediaBaseURL, "/") {
		cfg.Server.MediaBaseURL += "/"
	}
	if cfg.Auth.MediaURLSecret == "" {
		cfg.Auth.MediaURLSecret = cfg.Auth.JWTSecret
	}

	return cfg
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username == "" {
		return fmt.Sprintf("mongodb://%s:%s/%s", cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
		cfg.MongoDB.Username,
		cfg.MongoDB.Password,
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
		cfg.MongoDB.Database,
	)
}
