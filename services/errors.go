package services

import (
	"errors"
	"fmt"
)

var (
	ErrPlantNotFound     = errors.New("plant not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCheckout     = errors.New("checkout has no items")
	ErrInvalidStatus     = errors.New("invalid order status")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StockError names the plant that could not cover a checkout line.
type StockError struct {
	PlantName string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("only %d of %s left, %d requested", e.Available, e.PlantName, e.Requested)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
