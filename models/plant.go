package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Plant represents a catalog entry
type Plant struct {
	ID          uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	CareInfo    string          `gorm:"type:text;not null;default:''" json:"care_info"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Category    string          `gorm:"not null;index" json:"category"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	ImageKey    *string         `json:"image_key,omitempty"`                // nullable, S3 key for the plant photo
	ImageURL    *string         `gorm:"-" json:"image_url,omitempty"`       // computed field, presigned URL for image
	IsFeatured  bool            `gorm:"not null;default:false;index" json:"is_featured"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Plant model
func (Plant) TableName() string {
	return "plants"
}

// BeforeCreate assigns an ID when the caller did not
func (p *Plant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// InStock reports whether quantity units can be sold right now.
func (p Plant) InStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}
