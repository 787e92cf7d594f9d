// internal/domain/product/category_service.go
package product

import (
	"strings"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db     *gorm.DB
	config *config.Config
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, cfg *config.Config) *CategoryService {
	return &CategoryService{
		db:     db,
		config: cfg,
	}
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// CategoryUpdateRequest represents category update data
type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

// CategoryWithProductCount represents category with product count
type CategoryWithProductCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}

// GetCategories retrieves categories ordered by name, each with its
// active product count. Retired categories only appear when requested.
func (s *CategoryService) GetCategories(includeRetired bool) ([]CategoryWithProductCount, error) {
	var categories []Category

	query := s.db.Model(&Category{}).Order("name ASC")
	if !includeRetired {
		query = query.Where("status = ?", StatusActive)
	}

	if err := query.Find(&categories).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to retrieve categories")
	}

	result := make([]CategoryWithProductCount, 0, len(categories))
	for _, cat := range categories {
		var productCount int64
		s.db.Model(&Product{}).
			Where("category_id = ? AND status = ?", cat.ID, StatusActive).
			Count(&productCount)

		result = append(result, CategoryWithProductCount{
			Category:     cat,
			ProductCount: productCount,
		})
	}

	return result, nil
}

// GetCategory retrieves a single active category by ID with its active
// product count.
func (s *CategoryService) GetCategory(id uint) (*CategoryWithProductCount, error) {
	var category Category
	result := s.db.Where("id = ? AND status = ?", id, StatusActive).First(&category)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("category not found")
		}
		return nil, apperr.Wrap(result.Error, "failed to retrieve category")
	}

	var productCount int64
	s.db.Model(&Product{}).
		Where("category_id = ? AND status = ?", category.ID, StatusActive).
		Count(&productCount)

	return &CategoryWithProductCount{Category: category, ProductCount: productCount}, nil
}

// GetCategoryProducts retrieves the active products of a category with
// pagination.
func (s *CategoryService) GetCategoryProducts(id uint, page, limit int) (*ProductResponse, error) {
	if _, err := s.GetCategory(id); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var products []Product
	var total int64

	query := s.db.Model(&Product{}).
		Preload("Category").
		Where("category_id = ? AND status = ?", id, StatusActive)

	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to count category products")
	}

	offset := (page - 1) * limit
	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to retrieve category products")
	}

	return &ProductResponse{
		Products:   products,
		Pagination: NewPagination(page, limit, total),
	}, nil
}

// CreateCategory creates a new category. Names are unique ignoring case.
func (s *CategoryService) CreateCategory(req *CategoryCreateRequest) (*Category, error) {
	var existing Category
	result := s.db.Where("LOWER(name) = ?", strings.ToLower(req.Name)).First(&existing)
	if result.Error == nil {
		return nil, apperr.Conflict("category with this name already exists")
	}

	category := Category{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Status:      StatusActive,
	}

	if err := s.db.Create(&category).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to create category")
	}

	return &category, nil
}

// UpdateCategory updates an existing category
func (s *CategoryService) UpdateCategory(id uint, req *CategoryUpdateRequest) (*Category, error) {
	var category Category
	result := s.db.Where("id = ?", id).First(&category)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("category not found")
		}
		return nil, apperr.Wrap(result.Error, "failed to find category")
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		var existing Category
		result := s.db.Where("LOWER(name) = ? AND id <> ?", strings.ToLower(*req.Name), id).First(&existing)
		if result.Error == nil {
			return nil, apperr.Conflict("category with this name already exists")
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}

	if err := s.db.Model(&category).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to update category")
	}

	return &category, nil
}

// RetireCategory marks a category retired. Categories that still have
// active products cannot be retired.
func (s *CategoryService) RetireCategory(id uint) error {
	var category Category
	result := s.db.Where("id = ?", id).First(&category)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return apperr.NotFound("category not found")
		}
		return apperr.Wrap(result.Error, "failed to find category")
	}

	var productCount int64
	s.db.Model(&Product{}).
		Where("category_id = ? AND status = ?", id, StatusActive).
		Count(&productCount)
	if productCount > 0 {
		return apperr.Conflict("cannot retire category with active products")
	}

	if err := s.db.Model(&category).Update("status", StatusRetired).Error; err != nil {
		return apperr.Wrap(err, "failed to retire category")
	}
	return nil
}
