package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/middleware"
	"github.com/greenleaf-nursery/nursery-api/services"
	"github.com/shopspring/decimal"
)

// CartResponse is the cart as returned by every cart endpoint
type CartResponse struct {
	SessionID  string              `json:"session_id"`
	Items      []services.CartItem `json:"items"`
	TotalItems int                 `json:"total_items"`
	TotalPrice decimal.Decimal     `json:"total_price"`
}

// AddCartItemRequest represents the request body for adding a plant to the cart
type AddCartItemRequest struct {
	PlantID  uuid.UUID `json:"plant_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemRequest sets a line's quantity; zero or less removes it
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// sessionCart resolves the caller's cart. It writes an error and returns
// false when the cart session middleware did not run.
func sessionCart(c *gin.Context) (string, *services.Cart, bool) {
	sessionID, err := middleware.GetCartSession(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cart session is required")
		return "", nil, false
	}
	return sessionID, services.GetCartRegistry().Get(sessionID), true
}

func cartResponse(sessionID string, cart *services.Cart) CartResponse {
	items := cart.Items()
	if items == nil {
		items = []services.CartItem{}
	}
	return CartResponse{
		SessionID:  sessionID,
		Items:      items,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}
}

// GetCart handles GET /api/v1/cart
func GetCart(c *gin.Context) {
	sessionID, cart, ok := sessionCart(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, cartResponse(sessionID, cart))
}

// AddCartItem handles POST /api/v1/cart/items - adds quantity to an existing
// line for the same plant
func AddCartItem(c *gin.Context) {
	sessionID, cart, ok := sessionCart(c)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err.Error())
		return
	}

	plant, err := catalogService().Get(c.Request.Context(), req.PlantID)
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to load plant")
		return
	}

	cart.Add(*plant, req.Quantity)
	respondOK(c, http.StatusOK, cartResponse(sessionID, cart))
}

// UpdateCartItem handles PUT /api/v1/cart/items/:plantId
func UpdateCartItem(c *gin.Context) {
	sessionID, cart, ok := sessionCart(c)
	if !ok {
		return
	}

	plantID, ok := parseID(c, "plantId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err.Error())
		return
	}

	if !cart.SetQuantity(plantID, *req.Quantity) {
		respondError(c, http.StatusNotFound, "PLANT_NOT_FOUND", "Plant is not in the cart")
		return
	}
	respondOK(c, http.StatusOK, cartResponse(sessionID, cart))
}

// RemoveCartItem handles DELETE /api/v1/cart/items/:plantId
func RemoveCartItem(c *gin.Context) {
	sessionID, cart, ok := sessionCart(c)
	if !ok {
		return
	}

	plantID, ok := parseID(c, "plantId")
	if !ok {
		return
	}

	cart.Remove(plantID)
	respondOK(c, http.StatusOK, cartResponse(sessionID, cart))
}

// ClearCart handles DELETE /api/v1/cart
func ClearCart(c *gin.Context) {
	sessionID, cart, ok := sessionCart(c)
	if !ok {
		return
	}

	cart.Clear()
	respondOK(c, http.StatusOK, cartResponse(sessionID, cart))
}
