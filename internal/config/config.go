package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	AuthModeJWT      = "jwt"
	AuthModeKeycloak = "keycloak"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Redis      RedisConfig      `mapstructure:"redis"`
	FileStore  FileStoreConfig  `mapstructure:"filestore"`
	Brain      BrainConfig      `mapstructure:"brain"`
	Events     EventsConfig     `mapstructure:"events"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	Mode     string         `mapstructure:"mode"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Keycloak KeycloakConfig `mapstructure:"keycloak"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type RedisConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

// Enabled reports whether a redis host was configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type FileStoreConfig struct {
	BasePath         string        `mapstructure:"base_path"`
	PublicPrefix     string        `mapstructure:"public_prefix"`
	MaxFileSize      int64         `mapstructure:"max_file_size"`
	AllowedMimeTypes []string      `mapstructure:"allowed_mime_types"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
}

type BrainConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

type MonitoringConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	// chat requests wait on the brain for up to brain.timeout
	v.SetDefault("server.write_timeout", "160s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "talkingplants")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.sqlite.path", "./data/talkingplants.db")

	// Auth defaults
	v.SetDefault("auth.mode", AuthModeJWT)
	v.SetDefault("auth.jwt.secret", "")
	v.SetDefault("auth.jwt.issuer", "")
	v.SetDefault("auth.keycloak.url", "")
	v.SetDefault("auth.keycloak.realm", "")
	v.SetDefault("auth.keycloak.client_id", "")
	v.SetDefault("auth.keycloak.client_secret", "")

	// Redis defaults
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.catalog_ttl", "10m")

	// FileStore defaults
	v.SetDefault("filestore.base_path", "./uploads")
	v.SetDefault("filestore.public_prefix", "/uploads")
	v.SetDefault("filestore.max_file_size", 10*1024*1024) // 10MB
	v.SetDefault("filestore.allowed_mime_types", []string{"image/jpeg", "image/png", "image/webp", "image/heic"})
	v.SetDefault("filestore.sweep_interval", "1h")

	// Brain defaults
	v.SetDefault("brain.url", "")
	v.SetDefault("brain.api_key", "")
	v.SetDefault("brain.timeout", "150s")

	// Events defaults
	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "talkingplants.lifecycle")

	// Monitoring defaults
	v.SetDefault("monitoring.log_level", "info")
}

// Validate checks that the fields required by the selected drivers are set
func Validate(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
	case DriverSQLite:
		if config.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	switch config.Auth.Mode {
	case AuthModeJWT:
		if config.Auth.JWT.Secret == "" {
			return fmt.Errorf("jwt secret is required")
		}
	case AuthModeKeycloak:
		if config.Auth.Keycloak.URL == "" {
			return fmt.Errorf("keycloak URL is required")
		}
	default:
		return fmt.Errorf("unsupported auth mode %q", config.Auth.Mode)
	}
	return nil
}
