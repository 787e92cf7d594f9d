package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
)

func TestCreateCategoryDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewCategoryService(db, testConfig())

	_, err := svc.CreateCategory(&product.CategoryCreateRequest{Name: "Electronics"})
	require.NoError(t, err)

	// Name uniqueness is case-insensitive
	_, err = svc.CreateCategory(&product.CategoryCreateRequest{Name: "electronics"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRetireCategoryWithActiveProducts(t *testing.T) {
	db := setupTestDB(t)
	catSvc := product.NewCategoryService(db, testConfig())
	prodSvc := product.NewService(db, testConfig())

	cat := createTestCategory(t, db, "Electronics")
	p := createTestProduct(t, db, cat.ID, "Widget", 100, 5)

	err := catSvc.RetireCategory(cat.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Once its products are retired the category can go too
	require.NoError(t, prodSvc.RetireProduct(p.ID))
	require.NoError(t, catSvc.RetireCategory(cat.ID))

	_, err = catSvc.GetCategory(cat.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetCategoriesProductCounts(t *testing.T) {
	db := setupTestDB(t)
	catSvc := product.NewCategoryService(db, testConfig())
	prodSvc := product.NewService(db, testConfig())

	cat := createTestCategory(t, db, "Electronics")
	createTestProduct(t, db, cat.ID, "Widget", 100, 5)
	retired := createTestProduct(t, db, cat.ID, "Gone", 100, 5)
	require.NoError(t, prodSvc.RetireProduct(retired.ID))

	categories, err := catSvc.GetCategories(false)
	require.NoError(t, err)
	require.Len(t, categories, 1)

	// Only active products count
	assert.Equal(t, int64(1), categories[0].ProductCount)
}

func TestGetCategoryProductsPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewCategoryService(db, testConfig())

	cat := createTestCategory(t, db, "Electronics")
	createTestProduct(t, db, cat.ID, "Alpha", 100, 5)
	createTestProduct(t, db, cat.ID, "Beta", 100, 5)
	createTestProduct(t, db, cat.ID, "Gamma", 100, 5)

	resp, err := svc.GetCategoryProducts(cat.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, resp.Products, 2)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)

	resp, err = svc.GetCategoryProducts(cat.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, resp.Products, 1)
	assert.True(t, resp.Pagination.HasPrev)
}
