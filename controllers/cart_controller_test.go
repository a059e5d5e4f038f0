package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/events"
	"github.com/greenleaf-nursery/nursery-api/middleware"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/services"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/greenleaf-nursery/nursery-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shopRouter wires the cart and checkout handlers behind the cart session
// middleware with a fresh registry and a recording publisher.
func shopRouter(t *testing.T) (*gin.Engine, *events.RecordingPublisher) {
	t.Helper()

	previousRegistry := services.GetCartRegistry()
	previousPublisher := events.GetPublisher()
	publisher := events.NewRecordingPublisher(16)
	services.SetCartRegistry(services.NewCartRegistry())
	events.SetPublisher(publisher)
	t.Cleanup(func() {
		services.SetCartRegistry(previousRegistry)
		events.SetPublisher(previousPublisher)
	})

	router := gin.New()
	shop := router.Group("/api/v1", middleware.CartSession(3600))
	shop.GET("/cart", GetCart)
	shop.POST("/cart/items", AddCartItem)
	shop.PUT("/cart/items/:plantId", UpdateCartItem)
	shop.DELETE("/cart/items/:plantId", RemoveCartItem)
	shop.DELETE("/cart", ClearCart)
	shop.POST("/checkout", CheckoutCart)
	shop.POST("/checkout/:plantId", BuyNow)
	return router, publisher
}

func shopRequest(t *testing.T, router *gin.Engine, session, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(middleware.CartSessionHeader, session)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func customerBody() map[string]any {
	return map[string]any{
		"customer_name":    "Ada Gardener",
		"customer_email":   "ada@example.com",
		"customer_phone":   "555-0100",
		"shipping_address": "12 Greenhouse Lane",
	}
}

func TestCartLifecycle(t *testing.T) {
	db := setupControllerTest(t)
	router, _ := shopRouter(t)
	fern := testutil.CreatePlant(t, db, testutil.WithPrice("10.00"))
	cactus := testutil.CreatePlant(t, db, testutil.WithPrice("4.50"))
	session := uuid.NewString()

	w := shopRequest(t, router, session, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, session, cart["session_id"])
	assert.Empty(t, cart["items"])

	shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": fern.ID, "quantity": 1})
	shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": fern.ID, "quantity": 2})
	w = shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": cactus.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	cart = decodeResponse(t, w)["data"].(map[string]any)
	assert.Len(t, cart["items"], 2)
	assert.Equal(t, float64(5), cart["total_items"])
	assert.Equal(t, "39", cart["total_price"])

	w = shopRequest(t, router, session, http.MethodPut, "/api/v1/cart/items/"+fern.ID.String(), map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	cart = decodeResponse(t, w)["data"].(map[string]any)
	assert.Len(t, cart["items"], 1)

	w = shopRequest(t, router, session, http.MethodPut, "/api/v1/cart/items/"+fern.ID.String(), map[string]any{"quantity": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = shopRequest(t, router, session, http.MethodDelete, "/api/v1/cart/items/"+cactus.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeResponse(t, w)["data"].(map[string]any)["total_items"])

	shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": cactus.ID, "quantity": 1})
	w = shopRequest(t, router, session, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeResponse(t, w)["data"].(map[string]any)["items"])
}

func TestAddCartItemErrors(t *testing.T) {
	setupControllerTest(t)
	router, _ := shopRouter(t)
	session := uuid.NewString()

	w := shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": uuid.New(), "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PLANT_NOT_FOUND", errorCode(t, w))

	w = shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": uuid.New(), "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestCartsAreIsolatedPerSession(t *testing.T) {
	db := setupControllerTest(t)
	router, _ := shopRouter(t)
	plant := testutil.CreatePlant(t, db)

	first, second := uuid.NewString(), uuid.NewString()
	shopRequest(t, router, first, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": plant.ID, "quantity": 1})

	w := shopRequest(t, router, second, http.MethodGet, "/api/v1/cart", nil)
	assert.Empty(t, decodeResponse(t, w)["data"].(map[string]any)["items"])
}

func TestCheckoutCart(t *testing.T) {
	db := setupControllerTest(t)
	router, publisher := shopRouter(t)
	x := testutil.CreatePlant(t, db, testutil.WithName("X"), testutil.WithPrice("10"), testutil.WithStock(5))
	y := testutil.CreatePlant(t, db, testutil.WithName("Y"), testutil.WithPrice("5"), testutil.WithStock(5))
	session := uuid.NewString()

	shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": x.ID, "quantity": 2})
	shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": y.ID, "quantity": 1})

	w := shopRequest(t, router, session, http.MethodPost, "/api/v1/checkout", customerBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, "25", order["total_amount"])
	assert.Equal(t, string(models.OrderStatusPending), order["status"])
	assert.Len(t, order["items"], 2)
	assert.NotEmpty(t, order["order_group_id"])

	w = shopRequest(t, router, session, http.MethodGet, "/api/v1/cart", nil)
	assert.Empty(t, decodeResponse(t, w)["data"].(map[string]any)["items"])

	plants, err := store.New(db).Plants().List(t.Context(), store.PlantFilter{IDs: []uuid.UUID{x.ID}})
	require.NoError(t, err)
	assert.Equal(t, 3, plants[0].Stock)
	assert.Len(t, publisher.Events(), 1)

	w = shopRequest(t, router, session, http.MethodPost, "/api/v1/checkout", customerBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_CART", errorCode(t, w))
}

func TestCheckoutCartInsufficientStockKeepsCart(t *testing.T) {
	db := setupControllerTest(t)
	router, publisher := shopRouter(t)
	plant := testutil.CreatePlant(t, db, testutil.WithStock(1))
	session := uuid.NewString()

	shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": plant.ID, "quantity": 2})

	w := shopRequest(t, router, session, http.MethodPost, "/api/v1/checkout", customerBody())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, w))

	w = shopRequest(t, router, session, http.MethodGet, "/api/v1/cart", nil)
	assert.Len(t, decodeResponse(t, w)["data"].(map[string]any)["items"], 1)
	assert.Empty(t, publisher.Events())
}

func TestCheckoutCartValidation(t *testing.T) {
	db := setupControllerTest(t)
	router, _ := shopRouter(t)
	plant := testutil.CreatePlant(t, db)
	session := uuid.NewString()
	shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": plant.ID, "quantity": 1})

	body := customerBody()
	body["customer_email"] = "not-an-email"
	w := shopRequest(t, router, session, http.MethodPost, "/api/v1/checkout", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestBuyNow(t *testing.T) {
	db := setupControllerTest(t)
	router, _ := shopRouter(t)
	plant := testutil.CreatePlant(t, db, testutil.WithPrice("8.00"), testutil.WithStock(5))
	other := testutil.CreatePlant(t, db)
	session := uuid.NewString()
	shopRequest(t, router, session, http.MethodPost, "/api/v1/cart/items", map[string]any{"plant_id": other.ID, "quantity": 1})

	body := customerBody()
	body["quantity"] = 5
	w := shopRequest(t, router, session, http.MethodPost, "/api/v1/checkout/"+plant.ID.String(), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "40", decodeResponse(t, w)["data"].(map[string]any)["total_amount"])

	// The session cart is untouched by a direct buy.
	w = shopRequest(t, router, session, http.MethodGet, "/api/v1/cart", nil)
	assert.Len(t, decodeResponse(t, w)["data"].(map[string]any)["items"], 1)

	w = shopRequest(t, router, session, http.MethodPost, "/api/v1/checkout/"+plant.ID.String(), body)
	assert.Equal(t, http.StatusConflict, w.Code)

	delete(body, "quantity")
	w = shopRequest(t, router, session, http.MethodPost, "/api/v1/checkout/"+plant.ID.String(), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body["quantity"] = 1
	w = shopRequest(t, router, session, http.MethodPost, "/api/v1/checkout/"+uuid.NewString(), body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PLANT_NOT_FOUND", errorCode(t, w))
}
