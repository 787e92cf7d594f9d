package order_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
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
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
	))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Environment: "test"},
		Checkout: config.CheckoutConfig{
			TaxRateBasisPoints: 2000,
			ShippingFee:        1000,
		},
	}
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price int64, salePrice *int64, stock int) *product.Product {
	t.Helper()

	c := product.Category{Name: name + " category", Status: product.StatusActive}
	require.NoError(t, db.Create(&c).Error)

	p := product.Product{
		Name:       name,
		Price:      price,
		SalePrice:  salePrice,
		Stock:      stock,
		CategoryID: c.ID,
		Status:     product.StatusActive,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func addToCart(t *testing.T, db *gorm.DB, userID, productID uint, quantity int) {
	t.Helper()

	cartSvc := cart.NewService(db, testConfig())
	_, err := cartSvc.AddToCart(userID, &cart.AddToCartRequest{ProductID: productID, Quantity: quantity})
	require.NoError(t, err)
}

func testAddress() order.Address {
	return order.Address{
		Address:    "1 Main Street",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}

func stockOf(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()

	var p product.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Stock
}

func TestCreateOrderFromCart(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	sale := int64(80)
	p := createTestProduct(t, db, "Widget", 100, &sale, 5)
	addToCart(t, db, 1, p.ID, 3)

	created, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)

	// Lines freeze the effective price at checkout
	require.Len(t, created.Items, 1)
	assert.Equal(t, int64(80), created.Items[0].UnitPrice)
	assert.Equal(t, int64(240), created.Items[0].TotalPrice)

	// Total is the subtotal; tax and shipping are recorded beside it
	assert.Equal(t, int64(240), created.TotalAmount)
	assert.Equal(t, int64(48), created.TaxAmount)
	assert.Equal(t, int64(1000), created.ShippingAmount)
	assert.Equal(t, order.OrderStatusPending, created.Status)

	expectedNumber := fmt.Sprintf("ORD-%s-%05d", time.Now().UTC().Format("20060102"), created.ID)
	assert.Equal(t, expectedNumber, created.OrderNumber)

	// Stock is taken and the cart is emptied
	assert.Equal(t, 2, stockOf(t, db, p.ID))

	cartSvc := cart.NewService(db, testConfig())
	cartResp, err := cartSvc.GetCart(1)
	require.NoError(t, err)
	assert.Empty(t, cartResp.Items)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	_, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateOrderAllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	plenty := createTestProduct(t, db, "Plenty", 100, nil, 10)
	scarce := createTestProduct(t, db, "Scarce", 100, nil, 5)

	addToCart(t, db, 1, plenty.ID, 2)
	addToCart(t, db, 1, scarce.ID, 5)

	// Stock drops between adding to cart and checking out
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", scarce.ID).
		Update("stock", 1).Error)

	_, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	// Nothing happened: no order, stock untouched, cart intact
	var orderCount int64
	db.Model(&order.Order{}).Count(&orderCount)
	assert.Equal(t, int64(0), orderCount)

	assert.Equal(t, 10, stockOf(t, db, plenty.ID))
	assert.Equal(t, 1, stockOf(t, db, scarce.ID))

	cartSvc := cart.NewService(db, testConfig())
	cartResp, err := cartSvc.GetCart(1)
	require.NoError(t, err)
	assert.Len(t, cartResp.Items, 2)
}

func TestCreateOrderRejectsRetiredProduct(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	p := createTestProduct(t, db, "Widget", 100, nil, 5)
	addToCart(t, db, 1, p.ID, 1)

	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", p.ID).
		Update("status", product.StatusRetired).Error)

	_, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestOrderTotalMatchesCartTotal(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())
	cartSvc := cart.NewService(db, testConfig())

	sale := int64(75)
	a := createTestProduct(t, db, "Alpha", 100, &sale, 10)
	b := createTestProduct(t, db, "Beta", 250, nil, 10)

	addToCart(t, db, 1, a.ID, 2)
	addToCart(t, db, 1, b.ID, 1)

	cartResp, err := cartSvc.GetCart(1)
	require.NoError(t, err)
	cartTotal := cartResp.Totals.TotalAmount

	created, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)
	assert.Equal(t, cartTotal, created.TotalAmount)
}

func TestGetOrderScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	p := createTestProduct(t, db, "Widget", 100, nil, 5)
	addToCart(t, db, 1, p.ID, 1)

	created, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)

	_, err = svc.GetOrder(created.ID, 1)
	require.NoError(t, err)

	// Another user's lookup reads as not found, not forbidden
	_, err = svc.GetOrder(created.ID, 2)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCancelOrderRestoresStock(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	p := createTestProduct(t, db, "Widget", 100, nil, 5)
	addToCart(t, db, 1, p.ID, 3)

	created, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)
	require.Equal(t, 2, stockOf(t, db, p.ID))

	cancelled, err := svc.CancelOrder(created.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, stockOf(t, db, p.ID))
}

func TestCancelOrderOnlyWhilePending(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	p := createTestProduct(t, db, "Widget", 100, nil, 5)
	addToCart(t, db, 1, p.ID, 2)

	created, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(created.ID, &order.UpdateStatusRequest{Status: order.OrderStatusProcessing})
	require.NoError(t, err)

	_, err = svc.CancelOrder(created.ID, 1)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	assert.Equal(t, 3, stockOf(t, db, p.ID))
}

func TestUpdateOrderStatusLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	p := createTestProduct(t, db, "Widget", 100, nil, 5)
	addToCart(t, db, 1, p.ID, 1)

	created, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)

	shipped, err := svc.UpdateOrderStatus(created.ID, &order.UpdateStatusRequest{
		Status:         order.OrderStatusShipped,
		TrackingNumber: "TRACK-123",
	})
	require.NoError(t, err)
	assert.NotNil(t, shipped.ShippedAt)
	assert.Equal(t, "TRACK-123", shipped.TrackingNumber)

	delivered, err := svc.UpdateOrderStatus(created.ID, &order.UpdateStatusRequest{Status: order.OrderStatusDelivered})
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	// Delivered is terminal
	_, err = svc.UpdateOrderStatus(created.ID, &order.UpdateStatusRequest{Status: order.OrderStatusRefunded})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestUpdateOrderStatusUnknownStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	p := createTestProduct(t, db, "Widget", 100, nil, 5)
	addToCart(t, db, 1, p.ID, 1)

	created, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(created.ID, &order.UpdateStatusRequest{Status: "misplaced"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAdminCancelRestoresStockOnce(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	p := createTestProduct(t, db, "Widget", 100, nil, 5)
	addToCart(t, db, 1, p.ID, 3)

	created, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)
	require.Equal(t, 2, stockOf(t, db, p.ID))

	cancelled, err := svc.UpdateOrderStatus(created.ID, &order.UpdateStatusRequest{Status: order.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, stockOf(t, db, p.ID))

	// Cancelled is terminal, so a second release can never happen
	_, err = svc.UpdateOrderStatus(created.ID, &order.UpdateStatusRequest{Status: order.OrderStatusRefunded})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	assert.Equal(t, 5, stockOf(t, db, p.ID))
}

func TestGetUserOrdersFiltersAndPaginates(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	p := createTestProduct(t, db, "Widget", 100, nil, 50)

	for i := 0; i < 3; i++ {
		addToCart(t, db, 1, p.ID, 1)
		_, err := svc.CreateOrder(1, &order.CreateOrderRequest{ShippingAddress: testAddress()})
		require.NoError(t, err)
	}

	resp, err := svc.GetUserOrders(1, &order.OrderListRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 2)
	assert.Equal(t, int64(3), resp.Pagination.Total)

	resp, err = svc.GetUserOrders(1, &order.OrderListRequest{Status: order.OrderStatusPending})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 3)

	_, err = svc.GetUserOrders(1, &order.OrderListRequest{Status: "bogus"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestGetAllOrdersSearch(t *testing.T) {
	db := setupTestDB(t)
	svc := order.NewService(db, testConfig())

	alice := user.User{Email: "alice@example.com", Password: "x", FirstName: "Alice", LastName: "Smith", IsActive: true}
	require.NoError(t, db.Create(&alice).Error)
	bob := user.User{Email: "bob@example.com", Password: "x", FirstName: "Bob", LastName: "Jones", IsActive: true}
	require.NoError(t, db.Create(&bob).Error)

	p := createTestProduct(t, db, "Widget", 100, nil, 50)

	addToCart(t, db, alice.ID, p.ID, 1)
	_, err := svc.CreateOrder(alice.ID, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)

	addToCart(t, db, bob.ID, p.ID, 1)
	bobOrder, err := svc.CreateOrder(bob.ID, &order.CreateOrderRequest{ShippingAddress: testAddress()})
	require.NoError(t, err)

	resp, err := svc.GetAllOrders(&order.OrderListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 2)

	// Search matches customer name or email
	resp, err = svc.GetAllOrders(&order.OrderListRequest{Search: "alice"})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, alice.ID, resp.Orders[0].UserID)

	// Search matches the order number
	resp, err = svc.GetAllOrders(&order.OrderListRequest{Search: bobOrder.OrderNumber})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, bob.ID, resp.Orders[0].UserID)
}
