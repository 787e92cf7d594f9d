package product_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&product.Category{},
		&product.Product{},
		&product.ProductReview{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
	))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "Storefront API",
			Environment: "test",
		},
		JWT: config.JWTConfig{
			Secret:             "test-secret-key-that-is-long-enough-for-validation",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{
			BcryptCost: bcrypt.MinCost,
		},
		Checkout: config.CheckoutConfig{
			TaxRateBasisPoints:     2000,
			ShippingFee:            1000,
			ReviewsRequirePurchase: true,
		},
	}
}

func createTestCategory(t *testing.T, db *gorm.DB, name string) *product.Category {
	t.Helper()

	c := product.Category{
		Name:   name,
		Status: product.StatusActive,
	}
	require.NoError(t, db.Create(&c).Error)
	return &c
}

func createTestProduct(t *testing.T, db *gorm.DB, categoryID uint, name string, price int64, stock int) *product.Product {
	t.Helper()

	p := product.Product{
		Name:       name,
		Price:      price,
		Stock:      stock,
		CategoryID: categoryID,
		Status:     product.StatusActive,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *user.User {
	t.Helper()

	u := user.User{
		Email:     email,
		Password:  "irrelevant",
		FirstName: "Test",
		LastName:  "User",
		IsActive:  true,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

// createDeliveredOrder records a delivered purchase of the product so
// review purchase checks pass.
func createDeliveredOrder(t *testing.T, db *gorm.DB, userID, productID uint) *order.Order {
	t.Helper()

	o := order.Order{
		OrderNumber: "ORD-TEST-" + time.Now().Format("150405.000000000"),
		UserID:      userID,
		Status:      order.OrderStatusDelivered,
		TotalAmount: 100,
	}
	require.NoError(t, db.Create(&o).Error)

	item := order.OrderItem{
		OrderID:     o.ID,
		ProductID:   productID,
		ProductName: "Test Product",
		Quantity:    1,
		UnitPrice:   100,
		TotalPrice:  100,
	}
	require.NoError(t, db.Create(&item).Error)

	return &o
}
