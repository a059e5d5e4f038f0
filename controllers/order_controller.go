package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/services"
)

// UpdateOrderStatusRequest represents the request body for changing an order's status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func orderService() *services.OrderService {
	return services.NewOrderService(dataStore(), apiLogger)
}

// ListOrders handles GET /api/v1/admin/orders - every logical order, newest
// first, optionally filtered with ?status=
func ListOrders(c *gin.Context) {
	var status models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ToOrderStatus(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Status must be one of Pending, Confirmed, Delivered")
			return
		}
		status = parsed
	}

	orders, err := orderService().List(c.Request.Context(), status)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load orders")
		return
	}

	respondOK(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/admin/orders/:id - :id may be any line of the order
func GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := orderService().Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to load order")
		return
	}

	respondOK(c, http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/v1/admin/orders/:id/status - writes the
// status to every line of the order and returns the order as stored
func UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err.Error())
		return
	}

	order, err := orderService().UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to update order status")
		return
	}

	respondOK(c, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/admin/orders/:id - removes every line of the order
func DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	removed, err := orderService().Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to delete order")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id, "lines_deleted": removed})
}
