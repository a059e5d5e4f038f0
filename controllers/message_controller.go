package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greenleaf-nursery/nursery-api/services"
)

// MarkMessageReadRequest sets the read flag; an empty body marks the message read
type MarkMessageReadRequest struct {
	IsRead *bool `json:"is_read"`
}

func messageService() *services.MessageService {
	return services.NewMessageService(dataStore(), apiLogger)
}

// SubmitContact handles POST /api/v1/contact - stores a contact form submission
func SubmitContact(c *gin.Context) {
	var form services.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondValidation(c, err.Error())
		return
	}

	message, err := messageService().Submit(c.Request.Context(), form)
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to send message")
		return
	}

	respondOK(c, http.StatusCreated, message)
}

// ListMessages handles GET /api/v1/admin/messages - ?filter=all|unread|read
func ListMessages(c *gin.Context) {
	messages, err := messageService().List(c.Request.Context(), c.DefaultQuery("filter", services.MessagesAll))
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to load messages")
		return
	}

	respondOK(c, http.StatusOK, messages)
}

// GetMessage handles GET /api/v1/admin/messages/:id - opening a message marks it read
func GetMessage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	message, err := messageService().Open(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to load message")
		return
	}

	respondOK(c, http.StatusOK, message)
}

// MarkMessageRead handles PUT /api/v1/admin/messages/:id/read
func MarkMessageRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req MarkMessageReadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, err.Error())
			return
		}
	}
	read := true
	if req.IsRead != nil {
		read = *req.IsRead
	}

	message, err := messageService().MarkRead(c.Request.Context(), id, read)
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to update message")
		return
	}

	respondOK(c, http.StatusOK, message)
}

// DeleteMessage handles DELETE /api/v1/admin/messages/:id
func DeleteMessage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := messageService().Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to delete message")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id})
}
