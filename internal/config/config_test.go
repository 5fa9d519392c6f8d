package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "service-returns", cfg.App.Name)
	assert.Equal(t, "8011", cfg.App.Port)
	assert.Equal(t, "2024-01", cfg.Shopify.APIVersion)
	assert.Equal(t, 20, cfg.Shiprocket.TimeoutSeconds)
	assert.Equal(t, "201318", cfg.Returns.WarehousePincode)
	assert.Equal(t, "delhivery", cfg.Returns.PreferredCourier)
	assert.Equal(t, 5.0, cfg.Returns.RateTolerance)
	assert.Equal(t, 3, cfg.Returns.WindowDays)
	assert.Equal(t, 0.5, cfg.Returns.ParcelWeight)
}

func TestLoadBindsEnvironment(t *testing.T) {
	t.Setenv("SHOPIFY_STORE_DOMAIN", "acme.myshopify.com")
	t.Setenv("SHIPROCKET_EMAIL", "ops@example.com")
	t.Setenv("SHIPROCKET_TIMEOUT", "45")
	t.Setenv("PREFERRED_COURIER", "xpressbees")
	t.Setenv("COURIER_RATE_TOLERANCE", "12.5")
	t.Setenv("STOREFRONT_API_TOKEN", "sf-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "acme.myshopify.com", cfg.Shopify.StoreDomain)
	assert.Equal(t, "ops@example.com", cfg.Shiprocket.Email)
	assert.Equal(t, 45, cfg.Shiprocket.TimeoutSeconds)
	assert.Equal(t, "xpressbees", cfg.Returns.PreferredCourier)
	assert.Equal(t, 12.5, cfg.Returns.RateTolerance)
	assert.Equal(t, "sf-token", cfg.Returns.StorefrontToken)
}

func TestDatabaseDSN(t *testing.T) {
	dsn := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "returns",
		Password: "secret",
		Database: "returns_db",
		SSLMode:  "disable",
	}.DSN()
	assert.Equal(t, "host=localhost port=5432 user=returns password=secret dbname=returns_db sslmode=disable", dsn)
}
