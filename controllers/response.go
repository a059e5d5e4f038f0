package controllers

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/config"
	"github.com/greenleaf-nursery/nursery-api/services"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/greenleaf-nursery/nursery-api/utils"
)

var apiLogger = log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

// SetLogger replaces the logger handed to services (primarily for testing)
func SetLogger(logger *log.Logger) {
	apiLogger = logger
}

func dataStore() *store.Store {
	return store.New(config.GetDB())
}

func lowStockThreshold() int {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg.LowStockThreshold
	}
	return 5
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidation(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": details,
		},
	})
}

// parseID reads a uuid path parameter. It writes a 400 and returns false when
// the parameter is not a uuid.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondValidation(c, param+" must be a valid id")
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps service errors to the API error envelope. Anything
// unrecognised becomes a 500 with fallbackCode and fallbackMessage so storage
// details never reach the client.
func respondServiceError(c *gin.Context, err error, fallbackCode, fallbackMessage string) {
	var validationErr *services.ValidationError
	var stockErr *services.StockError
	var uploadErr *utils.FileUploadError

	switch {
	case errors.As(err, &validationErr):
		respondValidation(c, validationErr.Error())
	case errors.As(err, &uploadErr):
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
	case errors.As(err, &stockErr):
		respondError(c, http.StatusConflict, "INSUFFICIENT_STOCK", stockErr.Error())
	case errors.Is(err, services.ErrInsufficientStock):
		respondError(c, http.StatusConflict, "INSUFFICIENT_STOCK", "Not enough stock to complete this order")
	case errors.Is(err, services.ErrPlantNotFound):
		respondError(c, http.StatusNotFound, "PLANT_NOT_FOUND", "Plant not found")
	case errors.Is(err, services.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	case errors.Is(err, services.ErrMessageNotFound):
		respondError(c, http.StatusNotFound, "MESSAGE_NOT_FOUND", "Message not found")
	case errors.Is(err, services.ErrEmptyCheckout):
		respondError(c, http.StatusBadRequest, "EMPTY_CART", "Your cart is empty")
	case errors.Is(err, services.ErrInvalidStatus):
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Status must be one of Pending, Confirmed, Delivered")
	default:
		respondError(c, http.StatusInternalServerError, fallbackCode, fallbackMessage)
	}
}
