package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the returns service
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Shopify    ShopifyConfig    `mapstructure:"shopify"`
	Shiprocket ShiprocketConfig `mapstructure:"shiprocket"`
	Returns    ReturnsConfig    `mapstructure:"returns"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Name           string `mapstructure:"name"`
	Env            string `mapstructure:"env"`
	Port           string `mapstructure:"port"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN builds the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// JWTConfig holds JWT configuration for staff authentication
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// SentryConfig holds Sentry error tracking configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
}

// ShopifyConfig holds Shopify admin API configuration
type ShopifyConfig struct {
	StoreDomain string `mapstructure:"store_domain"`
	AccessToken string `mapstructure:"access_token"`
	APIVersion  string `mapstructure:"api_version"`
}

// ShiprocketConfig holds Shiprocket API configuration
type ShiprocketConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	BaseURL  string `mapstructure:"base_url"`
	// TimeoutSeconds bounds each outbound Shiprocket call, login included.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ReturnsConfig holds the business rules of the returns workflow
type ReturnsConfig struct {
	// WarehousePincode is where reverse shipments are delivered.
	WarehousePincode string `mapstructure:"warehouse_pincode"`
	// PreferredCourier is the brand favored within the rate tolerance.
	PreferredCourier string `mapstructure:"preferred_courier"`
	// RateTolerance is the premium (currency units) the preferred courier
	// may charge over the cheapest quote.
	RateTolerance float64 `mapstructure:"rate_tolerance"`
	// WindowDays is the return window after delivery.
	WindowDays int `mapstructure:"window_days"`
	// ParcelWeight is the declared reverse-shipment weight in kg.
	ParcelWeight float64 `mapstructure:"parcel_weight"`
	// StorefrontToken authenticates the customer-facing collaborator.
	StorefrontToken string `mapstructure:"storefront_token"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()
	v.SetEnvPrefix("")

	_ = v.BindEnv("app.name", "APP_NAME")
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("app.port", "APP_PORT")
	_ = v.BindEnv("app.allowed_origins", "ALLOWED_ORIGINS")

	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("database.name", "DB_NAME")
	_ = v.BindEnv("database.ssl_mode", "DB_SSLMODE")

	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")

	_ = v.BindEnv("nats.url", "NATS_URL")

	_ = v.BindEnv("jwt.secret", "JWT_SECRET")

	_ = v.BindEnv("sentry.dsn", "SENTRY_DSN")
	_ = v.BindEnv("sentry.environment", "APP_ENV")
	_ = v.BindEnv("sentry.release", "APP_VERSION")

	_ = v.BindEnv("shopify.store_domain", "SHOPIFY_STORE_DOMAIN")
	_ = v.BindEnv("shopify.access_token", "SHOPIFY_ACCESS_TOKEN")
	_ = v.BindEnv("shopify.api_version", "SHOPIFY_API_VERSION")

	_ = v.BindEnv("shiprocket.email", "SHIPROCKET_EMAIL")
	_ = v.BindEnv("shiprocket.password", "SHIPROCKET_PASSWORD")
	_ = v.BindEnv("shiprocket.base_url", "SHIPROCKET_BASE_URL")
	_ = v.BindEnv("shiprocket.timeout_seconds", "SHIPROCKET_TIMEOUT")

	_ = v.BindEnv("returns.warehouse_pincode", "WAREHOUSE_PINCODE")
	_ = v.BindEnv("returns.preferred_courier", "PREFERRED_COURIER")
	_ = v.BindEnv("returns.rate_tolerance", "COURIER_RATE_TOLERANCE")
	_ = v.BindEnv("returns.window_days", "RETURN_WINDOW_DAYS")
	_ = v.BindEnv("returns.parcel_weight", "RETURN_PARCEL_WEIGHT")
	_ = v.BindEnv("returns.storefront_token", "STOREFRONT_API_TOKEN")

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "service-returns")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8011")
	v.SetDefault("app.allowed_origins", "http://localhost:3000")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// NATS is optional; empty disables event publishing.
	v.SetDefault("nats.url", "")

	// Shopify
	v.SetDefault("shopify.api_version", "2024-01")

	// Shiprocket
	v.SetDefault("shiprocket.timeout_seconds", 20)

	// Returns business rules
	v.SetDefault("returns.warehouse_pincode", "201318")
	v.SetDefault("returns.preferred_courier", "delhivery")
	v.SetDefault("returns.rate_tolerance", 5.0)
	v.SetDefault("returns.window_days", 3)
	v.SetDefault("returns.parcel_weight", 0.5)

	// Sentry
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.release", "1.0.0")
}
