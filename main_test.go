package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenleaf-nursery/nursery-api/config"
	"github.com/greenleaf-nursery/nursery-api/controllers"
	"github.com/greenleaf-nursery/nursery-api/events"
	"github.com/greenleaf-nursery/nursery-api/services"
	"github.com/greenleaf-nursery/nursery-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestMain runs before all tests in the main package
// It ensures GO_ENV is set to "test" to prevent accidental data loss
func TestMain(m *testing.M) {
	if code := testutil.SafetyCheck(); code != 0 {
		os.Exit(code)
	}

	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		DBDriver:          "sqlite",
		GoEnv:             "test",
		JWTSecret:         testutil.TestJWTSecret,
		AdminScope:        "admin:nursery",
		StoreCurrency:     "USD",
		LowStockThreshold: 5,
		CORSOrigins:       []string{"*"},
		CartIdleTimeout:   time.Hour,
	}
}

// setupApp installs a fresh database, config, cart registry and recording
// publisher, and returns the full router.
func setupApp(t *testing.T) (*gin.Engine, *gorm.DB, *events.RecordingPublisher) {
	t.Helper()
	return setupAppWith(t, testConfig())
}

func setupAppWith(t *testing.T, cfg *config.Config) (*gin.Engine, *gorm.DB, *events.RecordingPublisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	publisher := events.NewRecordingPublisher(16)

	previousDB, previousCfg := config.GetDB(), config.GetConfig()
	previousRegistry, previousPublisher := services.GetCartRegistry(), events.GetPublisher()
	config.SetDB(db)
	config.SetConfig(cfg)
	services.SetCartRegistry(services.NewCartRegistry())
	events.SetPublisher(publisher)
	controllers.SetLogger(log.New(io.Discard, "", 0))
	t.Cleanup(func() {
		config.SetDB(previousDB)
		config.SetConfig(previousCfg)
		services.SetCartRegistry(previousRegistry)
		events.SetPublisher(previousPublisher)
	})

	router, err := setupRouter(cfg)
	require.NoError(t, err)
	return router, db, publisher
}

// TestHealthCheck is a unit test for the healthCheck handler function
func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	healthCheck(c)

	assert.Equal(t, http.StatusOK, w.Code, "Expected status code 200")
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response should be valid JSON")
	assert.Len(t, response, 2, "Response should have exactly 2 fields")
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Nursery API is running", response["message"])
}

func TestDatabaseStatus(t *testing.T) {
	router, _, _ := setupApp(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/database/status", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var response struct {
		Success bool     `json:"success"`
		Driver  string   `json:"driver"`
		Tables  []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "sqlite", response.Driver)
	assert.Subset(t, response.Tables, []string{"plants", "orders", "contact_messages"})
}

func TestCORSConfig(t *testing.T) {
	cfg := testConfig()
	c := corsConfig(cfg)
	assert.True(t, c.AllowAllOrigins)
	assert.Empty(t, c.AllowOrigins)
	assert.Equal(t, http.StatusOK, c.OptionsResponseStatusCode)

	cfg.CORSOrigins = []string{"https://shop.example.com"}
	c = corsConfig(cfg)
	assert.False(t, c.AllowAllOrigins)
	assert.Equal(t, []string{"https://shop.example.com"}, c.AllowOrigins)
	assert.True(t, c.AllowCredentials)
}

func TestNotificationCORSIgnoresAllowedOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.CORSOrigins = []string{"https://shop.example.com"}
	router, _, _ := setupAppWith(t, cfg)

	payload := `{"customerEmail":"ada@example.com","customerName":"Ada","plantName":"Monstera","quantity":1,"totalAmount":24.99}`

	tests := []struct {
		name       string
		method     string
		path       string
		origin     string
		body       string
		wantStatus int
		wantOrigin string
	}{
		{"notification preflight from partner", http.MethodOptions, "/api/v1/notifications/order-email", "https://partner.example.org", "", http.StatusOK, "*"},
		{"notification post from partner", http.MethodPost, "/api/v1/notifications/order-email", "https://partner.example.org", payload, http.StatusOK, "*"},
		{"storefront from allowed origin", http.MethodGet, "/api/v1/plants", "https://shop.example.com", "", http.StatusOK, "https://shop.example.com"},
		{"storefront from partner", http.MethodGet, "/api/v1/plants", "https://partner.example.org", "", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
				req.Header.Set("Access-Control-Request-Headers", "content-type,x-client-info,apikey")
			} else if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
