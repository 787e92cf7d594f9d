// internal/domain/product/entity.go
package product

import (
	"time"
)

// Status values shared by products and categories. Retired rows stay in
// the database so existing order items keep their foreign keys.
const (
	StatusActive  = "active"
	StatusRetired = "retired"
)

// Product represents the product entity. Prices are stored in cents.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       int64     `gorm:"not null" json:"price"`
	SalePrice   *int64    `json:"sale_price"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`
	ImageURL    string    `gorm:"size:500" json:"image_url"`
	IsFeatured  bool      `gorm:"default:false" json:"is_featured"`
	Status      string    `gorm:"not null;size:20;default:'active';index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Category Category        `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Reviews  []ProductReview `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"reviews,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255;uniqueIndex" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	ImageURL    string    `gorm:"size:500" json:"image_url"`
	Status      string    `gorm:"not null;size:20;default:'active';index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// ProductReview represents a customer review. One review per user per
// product, enforced by the composite unique index.
type ProductReview struct {
	ID         uint      `gorm:"primaryKey;" json:"id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_reviews_product_user" json:"product_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_reviews_product_user" json:"user_id"`
	Rating     int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`
	IsApproved bool      `gorm:"default:true" json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	ReviewerName string `gorm:"-" json:"reviewer_name,omitempty"`
}

// TableName overrides
func (Product) TableName() string       { return "products" }
func (Category) TableName() string      { return "categories" }
func (ProductReview) TableName() string { return "product_reviews" }

// IsActive reports whether the product is visible to shoppers.
func (p *Product) IsActive() bool {
	return p.Status == StatusActive
}

// EffectivePrice returns the price a buyer pays right now: the sale
// price when one is set and undercuts the list price, otherwise the
// list price.
func (p *Product) EffectivePrice() int64 {
	if p.SalePrice != nil && *p.SalePrice < p.Price {
		return *p.SalePrice
	}
	return p.Price
}

// IsOnSale reports whether the sale price currently applies.
func (p *Product) IsOnSale() bool {
	return p.SalePrice != nil && *p.SalePrice < p.Price
}

// IsActive reports whether the category is visible to shoppers.
func (c *Category) IsActive() bool {
	return c.Status == StatusActive
}
