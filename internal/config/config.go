package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the GORM-compatible data source name.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// KafkaConfig holds broker and consumer group settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// GatewayConfig holds settings for the payment gateway adapter.
type GatewayConfig struct {
	Name        string
	ApproveRate float64
	Timeout     time.Duration
}

// ServiceConfig holds all configuration for the travel booking service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	DBConfig      DatabaseConfig
	JWTConfig     JWTConfig
	KafkaConfig   KafkaConfig
	GatewayConfig GatewayConfig
}

// Load reads configuration from environment variables with the TRAVEL prefix.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("TRAVEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "travel_booking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "rahhal.")
	v.SetDefault("GATEWAY_NAME", "simulated")
	v.SetDefault("GATEWAY_APPROVE_RATE", 0.8)
	v.SetDefault("GATEWAY_TIMEOUT", "10s")

	appEnv := v.GetString("APP_ENV")
	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if appEnv != "development" {
			return nil, fmt.Errorf("TRAVEL_JWT_SECRET is required outside development")
		}
		secret = "dev-only-secret"
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: appEnv,
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret:        secret,
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		GatewayConfig: GatewayConfig{
			Name:        v.GetString("GATEWAY_NAME"),
			ApproveRate: v.GetFloat64("GATEWAY_APPROVE_RATE"),
			Timeout:     v.GetDuration("GATEWAY_TIMEOUT"),
		},
	}, nil
}
