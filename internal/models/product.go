// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const DefaultProductImage = "/uploads/default.jpg"

type Product struct {
	BaseModel
	FarmerID          uuid.UUID       `json:"farmer_id" gorm:"type:uuid;not null;index"`
	Name              string          `json:"name" gorm:"size:255;not null"`
	Description       string          `json:"description" gorm:"type:text"`
	Category          string          `json:"category,omitempty" gorm:"size:100;index"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit" gorm:"type:decimal(10,2);not null"`
	Unit              string          `json:"unit" gorm:"size:20;default:'kg'"`
	QuantityAvailable int             `json:"quantity_available" gorm:"not null;default:0"`
	Image             string          `json:"image" gorm:"size:512"`
	Images            pq.StringArray  `json:"images,omitempty" gorm:"type:text[]"`
	Views             int64           `json:"views" gorm:"default:0"`
	Rating            float64         `json:"rating" gorm:"type:decimal(3,2);default:0"`
	ReviewCount       int64           `json:"review_count" gorm:"default:0"`

	// Relationships
	Farmer  *User    `json:"farmer,omitempty" gorm:"foreignKey:FarmerID"`
	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:ProductID"`
}

type Review struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// InStock reports whether at least qty units are available.
func (p *Product) InStock(qty int) bool {
	return qty > 0 && p.QuantityAvailable >= qty
}
