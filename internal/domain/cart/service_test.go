package cart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
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
	))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Environment: "test"},
	}
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) *product.Product {
	t.Helper()

	c := product.Category{Name: name + " category", Status: product.StatusActive}
	require.NoError(t, db.Create(&c).Error)

	p := product.Product{
		Name:       name,
		Price:      price,
		Stock:      stock,
		CategoryID: c.ID,
		Status:     product.StatusActive,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func TestAddToCartMergesQuantity(t *testing.T) {
	db := setupTestDB(t)
	svc := cart.NewService(db, testConfig())
	p := createTestProduct(t, db, "Widget", 100, 10)

	resp, err := svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)

	// Adding the same product again increments the existing line
	resp, err = svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Quantity)
	assert.Equal(t, int64(500), resp.Totals.TotalAmount)
}

func TestAddToCartInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	svc := cart.NewService(db, testConfig())
	p := createTestProduct(t, db, "Scarce", 100, 3)

	_, err := svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 4})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	// A merged quantity above stock is rejected and the line stays put
	_, err = svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	resp, err := svc.GetCart(1)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
}

func TestAddToCartUnknownOrRetiredProduct(t *testing.T) {
	db := setupTestDB(t)
	svc := cart.NewService(db, testConfig())

	_, err := svc.AddToCart(1, &cart.AddToCartRequest{ProductID: 999, Quantity: 1})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	p := createTestProduct(t, db, "Retired", 100, 5)
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", p.ID).
		Update("status", product.StatusRetired).Error)

	_, err = svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateCartItemZeroRemovesLine(t *testing.T) {
	db := setupTestDB(t)
	svc := cart.NewService(db, testConfig())
	p := createTestProduct(t, db, "Widget", 100, 10)

	resp, err := svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	itemID := resp.Items[0].ID

	zero := 0
	resp, err = svc.UpdateCartItem(1, itemID, &cart.UpdateCartItemRequest{Quantity: &zero})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestUpdateCartItemScopedToOwnCart(t *testing.T) {
	db := setupTestDB(t)
	svc := cart.NewService(db, testConfig())
	p := createTestProduct(t, db, "Widget", 100, 10)

	resp, err := svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	itemID := resp.Items[0].ID

	// Another user cannot touch the line
	five := 5
	_, err = svc.UpdateCartItem(2, itemID, &cart.UpdateCartItemRequest{Quantity: &five})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.RemoveFromCart(2, itemID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCartUsesCurrentEffectivePrice(t *testing.T) {
	db := setupTestDB(t)
	svc := cart.NewService(db, testConfig())
	p := createTestProduct(t, db, "Widget", 100, 10)

	_, err := svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	// Price drops after the item is in the cart
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", p.ID).
		Update("sale_price", 80).Error)

	resp, err := svc.GetCart(1)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(80), resp.Items[0].EffectivePrice)
	assert.Equal(t, int64(160), resp.Items[0].Subtotal)
	assert.Equal(t, int64(160), resp.Totals.TotalAmount)
}

func TestAddToCartSurfacesLookupFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := cart.NewService(db, testConfig())
	p := createTestProduct(t, db, "Widget", 100, 10)

	// Break the cart-line table so the lookup fails with a real
	// database error rather than a missing record
	require.NoError(t, db.Migrator().DropTable(&cart.CartItem{}))

	_, err := svc.AddToCart(1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "failed to retrieve cart item")
}

func TestClearCartIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := cart.NewService(db, testConfig())

	// Clearing a cart that never existed is a no-op
	require.NoError(t, svc.ClearCart(42))

	p := createTestProduct(t, db, "Widget", 100, 10)
	_, err := svc.AddToCart(42, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(42))

	resp, err := svc.GetCart(42)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, int64(0), resp.Totals.TotalAmount)
}
