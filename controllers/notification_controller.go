package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greenleaf-nursery/nursery-api/config"
	"github.com/greenleaf-nursery/nursery-api/services"
	"golang.org/x/text/currency"
)

// Browser clients call the notification endpoint directly, so it answers
// CORS itself even when no Origin header is sent.
var notificationCORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization, X-Client-Info, Apikey",
}

func setNotificationCORS(c *gin.Context) {
	for name, value := range notificationCORSHeaders {
		c.Header(name, value)
	}
}

func notificationService() *services.NotificationService {
	unit := currency.USD
	if cfg := config.GetConfig(); cfg != nil {
		unit = cfg.Currency()
	}
	return services.NewNotificationService(unit, apiLogger)
}

// OrderEmailPreflight handles OPTIONS /api/v1/notifications/order-email
func OrderEmailPreflight(c *gin.Context) {
	setNotificationCORS(c)
	c.Status(http.StatusOK)
}

// SendOrderEmail handles POST /api/v1/notifications/order-email - logs the
// confirmation email it would send and echoes the order back. No email is
// delivered.
func SendOrderEmail(c *gin.Context) {
	setNotificationCORS(c)

	var email services.OrderEmail
	if err := c.ShouldBindJSON(&email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if err := notificationService().LogOrderEmail(c.Request.Context(), email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      services.NotificationLoggedMessage,
		"orderDetails": email,
		"note":         services.NotificationNote,
	})
}
