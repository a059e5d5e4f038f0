package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "PORT", "KAFKA_BROKERS", "STORE_CURRENCY", "LOW_STOCK_THRESHOLD", "CORS_ORIGINS", "CART_IDLE_MINUTES", "ADMIN_SCOPE"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "USD", cfg.StoreCurrency)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 120*time.Minute, cfg.CartIdleTimeout)
	assert.Equal(t, "admin:nursery", cfg.AdminScope)
	assert.False(t, cfg.KafkaEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("STORE_CURRENCY", "eur")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("CART_IDLE_MINUTES", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, currency.EUR, cfg.Currency())
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Equal(t, 120*time.Minute, cfg.CartIdleTimeout, "invalid numbers fall back to the default")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{DatabaseURL: "postgres://localhost/nursery", DBDriver: "postgres", StoreCurrency: "USD"}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL is required"},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "oracle" }, wantErr: "DB_DRIVER"},
		{name: "bad currency", mutate: func(c *Config) { c.StoreCurrency = "XYZW" }, wantErr: "STORE_CURRENCY"},
		{name: "negative threshold", mutate: func(c *Config) { c.LowStockThreshold = -1 }, wantErr: "LOW_STOCK_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	assert.True(t, (&Config{GoEnv: "production"}).IsProduction())
	assert.True(t, (&Config{GoEnv: "test"}).IsTest())
	assert.True(t, (&Config{GoEnv: "development"}).IsDevelopment())
	assert.True(t, (&Config{Auth0Domain: "tenant.auth0.com"}).UsesAuth0())
	assert.False(t, (&Config{}).UsesAuth0())
}

func TestSetConfig(t *testing.T) {
	original := GetConfig()
	defer SetConfig(original)

	cfg := &Config{Port: "9999"}
	SetConfig(cfg)
	assert.Same(t, cfg, GetConfig())
}
