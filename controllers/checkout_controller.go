package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greenleaf-nursery/nursery-api/events"
	"github.com/greenleaf-nursery/nursery-api/services"
)

// BuyNowRequest is the direct single-plant checkout body
type BuyNowRequest struct {
	services.CustomerDetails
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

func checkoutService() *services.CheckoutService {
	return services.NewCheckoutService(dataStore(), events.GetPublisher(), apiLogger)
}

// CheckoutCart handles POST /api/v1/checkout - orders everything in the
// session cart and empties it
func CheckoutCart(c *gin.Context) {
	_, cart, ok := sessionCart(c)
	if !ok {
		return
	}

	var customer services.CustomerDetails
	if err := c.ShouldBindJSON(&customer); err != nil {
		respondValidation(c, err.Error())
		return
	}

	order, err := checkoutService().CheckoutCart(c.Request.Context(), customer, cart)
	if err != nil {
		respondServiceError(c, err, "CHECKOUT_FAILED", "Failed to place order")
		return
	}

	respondOK(c, http.StatusCreated, order)
}

// BuyNow handles POST /api/v1/checkout/:plantId - orders one plant without
// touching the cart
func BuyNow(c *gin.Context) {
	plantID, ok := parseID(c, "plantId")
	if !ok {
		return
	}

	var req BuyNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err.Error())
		return
	}

	order, err := checkoutService().BuyNow(c.Request.Context(), req.CustomerDetails, plantID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "CHECKOUT_FAILED", "Failed to place order")
		return
	}

	respondOK(c, http.StatusCreated, order)
}
