package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
)

func TestEffectivePrice(t *testing.T) {
	sale := int64(80)
	p := product.Product{Price: 100, SalePrice: &sale}
	assert.Equal(t, int64(80), p.EffectivePrice())
	assert.True(t, p.IsOnSale())

	higher := int64(120)
	p = product.Product{Price: 100, SalePrice: &higher}
	assert.Equal(t, int64(100), p.EffectivePrice())
	assert.False(t, p.IsOnSale())

	equal := int64(100)
	p = product.Product{Price: 100, SalePrice: &equal}
	assert.Equal(t, int64(100), p.EffectivePrice())

	p = product.Product{Price: 100}
	assert.Equal(t, int64(100), p.EffectivePrice())
	assert.False(t, p.IsOnSale())
}

func TestGetProductsExcludesRetired(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, testConfig())
	cat := createTestCategory(t, db, "Electronics")

	createTestProduct(t, db, cat.ID, "Active One", 100, 5)
	retired := createTestProduct(t, db, cat.ID, "Gone", 100, 5)
	require.NoError(t, svc.RetireProduct(retired.ID))

	resp, err := svc.GetProducts(&product.ProductListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Active One", resp.Products[0].Name)

	// Admin listings include retired products
	resp, err = svc.GetProducts(&product.ProductListRequest{IncludeRetired: true})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 2)
}

func TestGetProductNotFoundWhenRetired(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, testConfig())
	cat := createTestCategory(t, db, "Electronics")

	p := createTestProduct(t, db, cat.ID, "Widget", 100, 5)
	require.NoError(t, svc.RetireProduct(p.ID))

	_, err := svc.GetProduct(p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Admin lookup still sees it
	got, err := svc.GetProductAny(p.ID)
	require.NoError(t, err)
	assert.Equal(t, product.StatusRetired, got.Status)

	// Retiring twice reports not found
	err = svc.RetireProduct(p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetProductsSortWhitelist(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, testConfig())
	cat := createTestCategory(t, db, "Electronics")

	createTestProduct(t, db, cat.ID, "Cheap", 100, 5)
	createTestProduct(t, db, cat.ID, "Pricey", 300, 5)

	// Unknown sort keys fall back to created_at instead of reaching SQL
	resp, err := svc.GetProducts(&product.ProductListRequest{
		SortBy:    "stock; DROP TABLE products",
		SortOrder: "sideways",
	})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 2)

	resp, err = svc.GetProducts(&product.ProductListRequest{
		SortBy:    "price",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "Cheap", resp.Products[0].Name)
	assert.Equal(t, "Pricey", resp.Products[1].Name)
}

func TestGetProductsOnSaleFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, testConfig())
	cat := createTestCategory(t, db, "Electronics")

	createTestProduct(t, db, cat.ID, "Plain", 100, 5)

	sale := int64(80)
	onSale := product.Product{
		Name: "Discounted", Price: 100, SalePrice: &sale,
		Stock: 5, CategoryID: cat.ID, Status: product.StatusActive,
	}
	require.NoError(t, db.Create(&onSale).Error)

	// A sale price above the list price does not count as a sale
	bogus := int64(150)
	notReally := product.Product{
		Name: "Marked Up", Price: 100, SalePrice: &bogus,
		Stock: 5, CategoryID: cat.ID, Status: product.StatusActive,
	}
	require.NoError(t, db.Create(&notReally).Error)

	yes := true
	resp, err := svc.GetProducts(&product.ProductListRequest{OnSale: &yes})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Discounted", resp.Products[0].Name)
}

func TestCreateProductValidatesCategory(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, testConfig())

	_, err := svc.CreateProduct(&product.ProductCreateRequest{
		Name:       "Orphan",
		Price:      100,
		Stock:      1,
		CategoryID: 999,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateProductValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, testConfig())
	cat := createTestCategory(t, db, "Electronics")
	p := createTestProduct(t, db, cat.ID, "Widget", 100, 5)

	badPrice := int64(-5)
	_, err := svc.UpdateProduct(p.ID, &product.ProductUpdateRequest{Price: &badPrice})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	badStatus := "discontinued"
	_, err = svc.UpdateProduct(p.ID, &product.ProductUpdateRequest{Status: &badStatus})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	newStock := 42
	updated, err := svc.UpdateProduct(p.ID, &product.ProductUpdateRequest{Stock: &newStock})
	require.NoError(t, err)
	assert.Equal(t, 42, updated.Stock)
}

func TestGetRelatedProducts(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, testConfig())
	cat := createTestCategory(t, db, "Electronics")
	other := createTestCategory(t, db, "Books")

	p := createTestProduct(t, db, cat.ID, "Widget", 100, 5)
	createTestProduct(t, db, cat.ID, "Sibling", 100, 5)
	createTestProduct(t, db, other.ID, "Unrelated", 100, 5)

	related, err := svc.GetRelatedProducts(p.ID, 4)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "Sibling", related[0].Name)
}
