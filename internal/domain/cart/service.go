// internal/domain/cart/service.go
package cart

import (
	"time"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CartItemResponse represents a cart item with product details and
// prices computed from the product's current effective price.
type CartItemResponse struct {
	ID             uint             `json:"id"`
	ProductID      uint             `json:"product_id"`
	Quantity       int              `json:"quantity"`
	UnitPrice      int64            `json:"unit_price"`
	EffectivePrice int64            `json:"effective_price"`
	Subtotal       int64            `json:"subtotal"`
	Product        *product.Product `json:"product,omitempty"`
	AddedAt        time.Time        `json:"added_at"`
}

// CartResponse represents a shopping cart with items and totals
type CartResponse struct {
	ID        uint               `json:"id"`
	UserID    uint               `json:"user_id"`
	Items     []CartItemResponse `json:"items"`
	Totals    CartTotals         `json:"totals"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request. Zero
// removes the line.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// GetCart retrieves the user's cart, creating an empty one on first use
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	c, err := s.getOrCreateCart(userID)
	if err != nil {
		return nil, err
	}
	return s.buildCartResponse(c)
}

// AddToCart adds a product to the cart. Adding a product already in the
// cart increments its line quantity; the combined quantity may not
// exceed current stock.
func (s *Service) AddToCart(userID uint, req *AddToCartRequest) (*CartResponse, error) {
	var prod product.Product
	result := s.db.Where("id = ? AND status = ?", req.ProductID, product.StatusActive).First(&prod)
	if result.Error != nil {
		return nil, apperr.NotFound("product not found")
	}

	c, err := s.getOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var existing CartItem
	result = s.db.Where("cart_id = ? AND product_id = ?", c.ID, req.ProductID).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		if prod.Stock < req.Quantity {
			return nil, apperr.InsufficientStock("insufficient stock for %q: %d available", prod.Name, prod.Stock)
		}
		item := CartItem{
			CartID:    c.ID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, apperr.Wrap(err, "failed to add item to cart")
		}
	} else if result.Error != nil {
		return nil, apperr.Wrap(result.Error, "failed to retrieve cart item")
	} else {
		newQuantity := existing.Quantity + req.Quantity
		if prod.Stock < newQuantity {
			return nil, apperr.InsufficientStock("insufficient stock for %q: %d available", prod.Name, prod.Stock)
		}
		if err := s.db.Model(&existing).Update("quantity", newQuantity).Error; err != nil {
			return nil, apperr.Wrap(err, "failed to update cart item")
		}
	}

	s.db.Model(c).Update("updated_at", time.Now().UTC())

	return s.buildCartResponse(c)
}

// UpdateCartItem sets the quantity of a cart line. Zero removes it; any
// other value is validated against current stock. Lines belonging to a
// different user's cart are reported as not found.
func (s *Service) UpdateCartItem(userID, itemID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	c, err := s.getOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var item CartItem
	result := s.db.Where("id = ? AND cart_id = ?", itemID, c.ID).First(&item)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("cart item not found")
	}
	if result.Error != nil {
		return nil, apperr.Wrap(result.Error, "failed to retrieve cart item")
	}

	quantity := *req.Quantity
	if quantity == 0 {
		if err := s.db.Delete(&item).Error; err != nil {
			return nil, apperr.Wrap(err, "failed to remove cart item")
		}
	} else {
		var prod product.Product
		if err := s.db.Where("id = ?", item.ProductID).First(&prod).Error; err != nil {
			return nil, apperr.NotFound("product not found")
		}
		if prod.Stock < quantity {
			return nil, apperr.InsufficientStock("insufficient stock for %q: %d available", prod.Name, prod.Stock)
		}
		if err := s.db.Model(&item).Update("quantity", quantity).Error; err != nil {
			return nil, apperr.Wrap(err, "failed to update cart item")
		}
	}

	s.db.Model(c).Update("updated_at", time.Now().UTC())

	return s.buildCartResponse(c)
}

// RemoveFromCart removes a cart line
func (s *Service) RemoveFromCart(userID, itemID uint) (*CartResponse, error) {
	zero := 0
	return s.UpdateCartItem(userID, itemID, &UpdateCartItemRequest{Quantity: &zero})
}

// ClearCart removes all lines from the user's cart. Clearing a cart
// that was never created succeeds as a no-op.
func (s *Service) ClearCart(userID uint) error {
	var c Cart
	result := s.db.Where("user_id = ?", userID).First(&c)
	if result.Error == gorm.ErrRecordNotFound {
		return nil
	}
	if result.Error != nil {
		return apperr.Wrap(result.Error, "failed to retrieve cart")
	}

	if err := s.db.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error; err != nil {
		return apperr.Wrap(err, "failed to clear cart")
	}
	return nil
}

// Private helper methods

func (s *Service) getOrCreateCart(userID uint) (*Cart, error) {
	var c Cart
	result := s.db.Where("user_id = ?", userID).First(&c)
	if result.Error == gorm.ErrRecordNotFound {
		c = Cart{UserID: userID}
		if err := s.db.Create(&c).Error; err != nil {
			return nil, apperr.Wrap(err, "failed to create cart")
		}
		return &c, nil
	}
	if result.Error != nil {
		return nil, apperr.Wrap(result.Error, "failed to retrieve cart")
	}
	return &c, nil
}

func (s *Service) buildCartResponse(c *Cart) (*CartResponse, error) {
	var items []CartItem
	if err := s.db.Where("cart_id = ?", c.ID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to retrieve cart items")
	}

	responses := make([]CartItemResponse, 0, len(items))
	var totals CartTotals

	for _, item := range items {
		var prod product.Product
		err := s.db.Preload("Category").Where("id = ?", item.ProductID).First(&prod).Error
		if err != nil {
			continue // Skip if product row disappeared
		}

		effective := prod.EffectivePrice()
		subtotal := effective * int64(item.Quantity)

		responses = append(responses, CartItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      prod.Price,
			EffectivePrice: effective,
			Subtotal:       subtotal,
			Product:        &prod,
			AddedAt:        item.CreatedAt,
		})

		totals.ItemCount++
		totals.TotalQuantity += item.Quantity
		totals.TotalAmount += subtotal
	}

	return &CartResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     responses,
		Totals:    totals,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}
