package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Combo.CacheTTL)
	assert.Equal(t, int64(2500), cfg.Checkout.DeliveryFee)
	assert.Equal(t, 30*24*time.Hour, cfg.HTTP.SessionTTL)
	assert.False(t, cfg.HTTP.SecureCookies)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := load("", []string{
		"PIZZA_HTTP__ADDR=:9090",
		"PIZZA_HTTP__SHUTDOWN_TIMEOUT=3s",
		"PIZZA_WOO__CONSUMER_KEY=ck_test",
		"PIZZA_KAFKA__BROKERS=a:9092, b:9092",
		"PIZZA_STORAGE__REDIS_DB=2",
		"PIZZA_HTTP__ADMIN_TOKEN=s3cret",
		"UNRELATED=1",
	})
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "ck_test", cfg.Woo.ConsumerKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.Equal(t, "s3cret", cfg.HTTP.AdminToken)
	// untouched sections keep their defaults
	assert.Equal(t, "CLP", cfg.Store.Currency)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: redis\ncheckout:\n  delivery_fee: 3000\n"), 0o600))

	cfg, err := load(path, []string{"PIZZA_CHECKOUT__DELIVERY_FEE=3500"})
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, int64(3500), cfg.Checkout.DeliveryFee)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}
