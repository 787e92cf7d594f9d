// internal/domain/order/service.go
package order

import (
	"strings"
	"time"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	ShippingAddress Address `json:"shipping_address" binding:"required"`
	Notes           string  `json:"notes,omitempty"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page   int         `form:"page,default=1"`
	Limit  int         `form:"pageSize,default=20"`
	Status OrderStatus `form:"status"`
	Search string      `form:"search"`
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status         OrderStatus `json:"status" binding:"required"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order            `json:"orders"`
	Pagination product.Pagination `json:"pagination"`
}

// CreateOrder turns the user's cart into an order. Stock validation,
// order creation, stock decrement and cart clearing all happen in one
// transaction; any failure leaves cart, stock and orders untouched.
func (s *Service) CreateOrder(userID uint, req *CreateOrderRequest) (*Order, error) {
	var created Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var c cart.Cart
		if err := tx.Where("user_id = ?", userID).First(&c).Error; err != nil {
			return apperr.Validation("cart is empty")
		}

		var items []cart.CartItem
		if err := tx.Where("cart_id = ?", c.ID).Order("id ASC").Find(&items).Error; err != nil {
			return apperr.Wrap(err, "failed to retrieve cart items")
		}
		if len(items) == 0 {
			return apperr.Validation("cart is empty")
		}

		// Freeze each line at the product's current effective price and
		// take the stock inside the same statement that checks it, so
		// two concurrent checkouts cannot both win the last units.
		var subtotal int64
		orderItems := make([]OrderItem, 0, len(items))
		for _, item := range items {
			var prod product.Product
			if err := tx.Where("id = ? AND status = ?", item.ProductID, product.StatusActive).First(&prod).Error; err != nil {
				return apperr.Validation("product %d is no longer available", item.ProductID)
			}

			result := tx.Model(&product.Product{}).
				Where("id = ? AND stock >= ?", prod.ID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return apperr.Wrap(result.Error, "failed to reserve stock")
			}
			if result.RowsAffected == 0 {
				return apperr.InsufficientStock("insufficient stock for %q: %d available", prod.Name, prod.Stock)
			}

			unitPrice := prod.EffectivePrice()
			lineTotal := unitPrice * int64(item.Quantity)
			subtotal += lineTotal

			orderItems = append(orderItems, OrderItem{
				ProductID:   prod.ID,
				ProductName: prod.Name,
				Quantity:    item.Quantity,
				UnitPrice:   unitPrice,
				TotalPrice:  lineTotal,
			})
		}

		order := Order{
			UserID:          userID,
			Status:          OrderStatusPending,
			TotalAmount:     subtotal,
			TaxAmount:       subtotal * s.config.Checkout.TaxRateBasisPoints / 10000,
			ShippingAmount:  s.config.Checkout.ShippingFee,
			ShippingAddress: req.ShippingAddress,
			Notes:           req.Notes,
		}

		if err := tx.Create(&order).Error; err != nil {
			return apperr.Wrap(err, "failed to create order")
		}

		order.OrderNumber = order.GenerateOrderNumber()
		if err := tx.Model(&order).Update("order_number", order.OrderNumber).Error; err != nil {
			return apperr.Wrap(err, "failed to set order number")
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
			if err := tx.Create(&orderItems[i]).Error; err != nil {
				return apperr.Wrap(err, "failed to create order item")
			}
		}

		if err := tx.Where("cart_id = ?", c.ID).Delete(&cart.CartItem{}).Error; err != nil {
			return apperr.Wrap(err, "failed to clear cart")
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Items").First(&created, created.ID).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load order")
	}

	return &created, nil
}

// GetUserOrders retrieves a user's orders, newest first
func (s *Service) GetUserOrders(userID uint, req *OrderListRequest) (*OrderResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Order{}).Preload("Items").Where("user_id = ?", userID)

	if req.Status != "" {
		if !req.Status.IsValid() {
			return nil, apperr.Validation("unknown order status %q", req.Status)
		}
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to count orders")
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to retrieve orders")
	}

	return &OrderResponse{
		Orders:     orders,
		Pagination: product.NewPagination(req.Page, req.Limit, total),
	}, nil
}

// GetOrder retrieves a single order. Orders belonging to another user
// are reported as not found rather than forbidden.
func (s *Service) GetOrder(orderID, userID uint) (*Order, error) {
	var order Order
	result := s.db.Preload("Items").Where("id = ? AND user_id = ?", orderID, userID).First(&order)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("order not found")
		}
		return nil, apperr.Wrap(result.Error, "failed to retrieve order")
	}
	return &order, nil
}

// CancelOrder cancels the caller's order. Only pending orders qualify;
// every line's stock goes back in the same transaction.
func (s *Service) CancelOrder(orderID, userID uint) (*Order, error) {
	var order Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
			return apperr.NotFound("order not found")
		}

		if !order.CanBeCancelledByUser() {
			return apperr.InvalidTransition("order in status %q cannot be cancelled", order.Status)
		}

		if err := s.releaseStock(tx, &order); err != nil {
			return err
		}

		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":         OrderStatusCancelled,
			"stock_released": true,
		}).Error; err != nil {
			return apperr.Wrap(err, "failed to cancel order")
		}

		order.Status = OrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Items").First(&order, order.ID).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load order")
	}
	return &order, nil
}

// GetAllOrders retrieves orders across all users for admin screens,
// with optional status filter and search over order number and customer
// email or name.
func (s *Service) GetAllOrders(req *OrderListRequest) (*OrderResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Order{}).Preload("Items")

	if req.Status != "" {
		if !req.Status.IsValid() {
			return nil, apperr.Validation("unknown order status %q", req.Status)
		}
		query = query.Where("orders.status = ?", req.Status)
	}

	if req.Search != "" {
		search := "%" + strings.TrimSpace(req.Search) + "%"
		query = query.
			Joins("JOIN users ON users.id = orders.user_id").
			Where("orders.order_number LIKE ? OR users.email LIKE ? OR users.first_name LIKE ? OR users.last_name LIKE ?",
				search, search, search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to count orders")
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("orders.created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to retrieve orders")
	}

	return &OrderResponse{
		Orders:     orders,
		Pagination: product.NewPagination(req.Page, req.Limit, total),
	}, nil
}

// UpdateOrderStatus applies an admin status change. Orders already in a
// terminal status reject further changes. Moving into cancelled or
// refunded restores stock, at most once per order.
func (s *Service) UpdateOrderStatus(orderID uint, req *UpdateStatusRequest) (*Order, error) {
	if !req.Status.IsValid() {
		return nil, apperr.Validation("unknown order status %q", req.Status)
	}

	var order Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return apperr.NotFound("order not found")
		}

		if order.Status.IsTerminal() {
			return apperr.InvalidTransition("order in status %q accepts no further changes", order.Status)
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status": req.Status,
		}

		switch req.Status {
		case OrderStatusShipped:
			updates["shipped_at"] = now
			if req.TrackingNumber != "" {
				updates["tracking_number"] = req.TrackingNumber
			}
		case OrderStatusDelivered:
			updates["delivered_at"] = now
		case OrderStatusCancelled, OrderStatusRefunded:
			if !order.StockReleased {
				if err := s.releaseStock(tx, &order); err != nil {
					return err
				}
				updates["stock_released"] = true
			}
		}

		if req.Notes != "" {
			updates["notes"] = req.Notes
		}

		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return apperr.Wrap(err, "failed to update order status")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load order")
	}
	return &order, nil
}

// releaseStock returns every order line's quantity to product stock.
func (s *Service) releaseStock(tx *gorm.DB, order *Order) error {
	var items []OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return apperr.Wrap(err, "failed to load order items")
	}

	for _, item := range items {
		result := tx.Model(&product.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity))
		if result.Error != nil {
			return apperr.Wrap(result.Error, "failed to restore stock for product %d", item.ProductID)
		}
	}
	return nil
}
