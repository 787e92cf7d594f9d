// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

const dashboardCacheKey = "analytics:dashboard"

// Service handles admin dashboard aggregates. Results are cached in
// Redis for a short TTL since every query scans the orders table.
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
	}
}

// DashboardStats represents the admin dashboard payload. Revenue
// excludes cancelled and refunded orders.
type DashboardStats struct {
	TotalOrders     int64              `json:"total_orders"`
	TotalProducts   int64              `json:"total_products"`
	TotalCategories int64              `json:"total_categories"`
	TotalUsers      int64              `json:"total_users"`
	TotalRevenue    int64              `json:"total_revenue"` // In cents
	RecentOrders    []order.Order      `json:"recent_orders"`
	TopProducts     []ProductSalesData `json:"top_products"`
	OrdersByStatus  []StatusData       `json:"orders_by_status"`
}

// ProductSalesData aggregates units sold and revenue per product
type ProductSalesData struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	TotalSold   int64  `json:"total_sold"`
	Revenue     int64  `json:"revenue"`
}

// StatusData counts orders in one status
type StatusData struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// GetDashboardStats retrieves dashboard statistics, serving the cached
// copy when one is fresh.
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, dashboardCacheKey).Result(); err == nil {
			var stats DashboardStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.computeDashboardStats()
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if payload, err := json.Marshal(stats); err == nil {
			ttl := s.config.Checkout.DashboardCacheTTL
			if ttl <= 0 {
				ttl = time.Minute
			}
			s.redisClient.Set(ctx, dashboardCacheKey, payload, ttl)
		}
	}

	return stats, nil
}

func (s *Service) computeDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	s.db.Raw("SELECT COUNT(*) FROM orders").Scan(&stats.TotalOrders)
	s.db.Raw("SELECT COUNT(*) FROM products").Scan(&stats.TotalProducts)
	s.db.Raw("SELECT COUNT(*) FROM categories").Scan(&stats.TotalCategories)
	s.db.Raw("SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers)
	s.db.Raw("SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status NOT IN ('cancelled', 'refunded')").Scan(&stats.TotalRevenue)

	if err := s.db.Preload("Items").Order("created_at DESC").Limit(5).Find(&stats.RecentOrders).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load recent orders")
	}

	productRows, err := s.db.Raw(`
		SELECT
			oi.product_id,
			oi.product_name,
			COALESCE(SUM(oi.quantity), 0) as total_sold,
			COALESCE(SUM(oi.total_price), 0) as revenue
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		WHERE o.status NOT IN ('cancelled', 'refunded')
		GROUP BY oi.product_id, oi.product_name
		ORDER BY total_sold DESC
		LIMIT 5
	`).Rows()
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load top products")
	}
	defer productRows.Close()

	for productRows.Next() {
		var data ProductSalesData
		if err := productRows.Scan(&data.ProductID, &data.ProductName, &data.TotalSold, &data.Revenue); err != nil {
			continue
		}
		stats.TopProducts = append(stats.TopProducts, data)
	}

	statusRows, err := s.db.Raw(`
		SELECT status, COUNT(*) as count
		FROM orders
		GROUP BY status
		ORDER BY count DESC
	`).Rows()
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load order status breakdown")
	}
	defer statusRows.Close()

	for statusRows.Next() {
		var data StatusData
		if err := statusRows.Scan(&data.Status, &data.Count); err != nil {
			continue
		}
		stats.OrdersByStatus = append(stats.OrdersByStatus, data)
	}

	return stats, nil
}
