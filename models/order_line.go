package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderLine is one (customer, plant, quantity) row written at checkout.
// Lines written by the same checkout share OrderGroupID. Rows created
// before group ids existed have a nil OrderGroupID.
type OrderLine struct {
	ID              uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	OrderGroupID    *uuid.UUID      `gorm:"type:char(36);index" json:"order_group_id"`
	CustomerName    string          `gorm:"not null;index:idx_orders_customer" json:"customer_name"`
	CustomerEmail   string          `gorm:"not null;index:idx_orders_customer" json:"customer_email"`
	CustomerPhone   string          `gorm:"not null" json:"customer_phone"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	PlantID         uuid.UUID       `gorm:"type:char(36);not null;index" json:"plant_id"`
	PlantName       string          `gorm:"not null" json:"plant_name"`
	PlantPrice      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"plant_price"` // snapshot at purchase time
	Quantity        int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"not null;default:'Pending';index" json:"status"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the OrderLine model
func (OrderLine) TableName() string {
	return "orders"
}

// BeforeCreate assigns an ID and the default status when the caller did not
func (o *OrderLine) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}

// LineTotal is unit price times quantity.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// IsLegacy reports whether the line predates order group ids.
func (o OrderLine) IsLegacy() bool {
	return o.OrderGroupID == nil
}
