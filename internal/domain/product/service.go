// internal/domain/product/service.go
package product

import (
	"fmt"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"pageSize,default=20"`
	CategoryID uint   `form:"categoryId"`
	Search     string `form:"search"`
	SortBy     string `form:"sortBy,default=created_at"`
	SortOrder  string `form:"sortOrder,default=desc"`
	IsFeatured *bool  `form:"isFeatured"`
	OnSale     *bool  `form:"onSale"`

	// IncludeRetired is never bound from the query string; admin
	// listings set it in code.
	IncludeRetired bool `form:"-"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"required,gt=0"`
	SalePrice   *int64 `json:"sale_price"`
	Stock       int    `json:"stock" binding:"gte=0"`
	CategoryID  uint   `json:"category_id" binding:"required"`
	ImageURL    string `json:"image_url"`
	IsFeatured  bool   `json:"is_featured"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	SalePrice   *int64  `json:"sale_price"`
	Stock       *int    `json:"stock"`
	CategoryID  *uint   `json:"category_id"`
	ImageURL    *string `json:"image_url"`
	IsFeatured  *bool   `json:"is_featured"`
	Status      *string `json:"status"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes pagination info for a result window.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(req *ProductListRequest) (*ProductResponse, error) {
	var products []Product
	var total int64

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Product{}).
		Preload("Category").
		Preload("Reviews", "is_approved = ?", true)

	if !req.IncludeRetired {
		query = query.Where("products.status = ?", StatusActive)
	}

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	if req.Search != "" {
		search := "%" + req.Search + "%"
		query = query.
			Joins("JOIN categories ON categories.id = products.category_id").
			Where("products.name LIKE ? OR products.description LIKE ? OR categories.name LIKE ?", search, search, search)
	}

	if req.IsFeatured != nil {
		query = query.Where("is_featured = ?", *req.IsFeatured)
	}

	if req.OnSale != nil {
		if *req.OnSale {
			query = query.Where("sale_price IS NOT NULL AND sale_price < price")
		} else {
			query = query.Where("sale_price IS NULL OR sale_price >= price")
		}
	}

	// Count total records
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to count products")
	}

	// Apply sorting
	query = query.Order(s.buildOrderClause(req.SortBy, req.SortOrder))

	// Apply pagination
	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to retrieve products")
	}

	return &ProductResponse{
		Products:   products,
		Pagination: NewPagination(req.Page, req.Limit, total),
	}, nil
}

// GetProduct retrieves a single active product by ID
func (s *Service) GetProduct(id uint) (*Product, error) {
	var p Product
	result := s.db.
		Preload("Category").
		Preload("Reviews", "is_approved = ?", true).
		Where("id = ? AND status = ?", id, StatusActive).
		First(&p)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Wrap(result.Error, "failed to retrieve product")
	}

	return &p, nil
}

// GetProductAny retrieves a product by ID regardless of status, for
// admin screens that still show retired items.
func (s *Service) GetProductAny(id uint) (*Product, error) {
	var p Product
	result := s.db.Preload("Category").Where("id = ?", id).First(&p)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Wrap(result.Error, "failed to retrieve product")
	}
	return &p, nil
}

// GetRelatedProducts retrieves up to limit active products sharing the
// category, in random order, excluding the product itself.
func (s *Service) GetRelatedProducts(id uint, limit int) ([]Product, error) {
	if limit < 1 || limit > 20 {
		limit = 4
	}

	p, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	var related []Product
	err = s.db.
		Preload("Category").
		Where("category_id = ? AND id <> ? AND status = ?", p.CategoryID, p.ID, StatusActive).
		Order("RANDOM()").
		Limit(limit).
		Find(&related).Error
	if err != nil {
		return nil, apperr.Wrap(err, "failed to retrieve related products")
	}

	return related, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(req *ProductCreateRequest) (*Product, error) {
	if req.SalePrice != nil && *req.SalePrice <= 0 {
		return nil, apperr.Validation("sale price must be positive")
	}

	// Validate category exists
	var category Category
	if result := s.db.Where("id = ?", req.CategoryID).First(&category); result.Error != nil {
		return nil, apperr.Validation("category %d does not exist", req.CategoryID)
	}

	p := Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		IsFeatured:  req.IsFeatured,
		Status:      StatusActive,
	}

	if err := s.db.Create(&p).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to create product")
	}

	s.db.Preload("Category").First(&p, p.ID)

	return &p, nil
}

// UpdateProduct updates an existing product
func (s *Service) UpdateProduct(id uint, req *ProductUpdateRequest) (*Product, error) {
	var p Product
	result := s.db.Where("id = ?", id).First(&p)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Wrap(result.Error, "failed to find product")
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, apperr.Validation("price must be positive")
		}
		updates["price"] = *req.Price
	}
	if req.SalePrice != nil {
		if *req.SalePrice <= 0 {
			return nil, apperr.Validation("sale price must be positive")
		}
		updates["sale_price"] = *req.SalePrice
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, apperr.Validation("stock must not be negative")
		}
		updates["stock"] = *req.Stock
	}
	if req.CategoryID != nil {
		var category Category
		if result := s.db.Where("id = ?", *req.CategoryID).First(&category); result.Error != nil {
			return nil, apperr.Validation("category %d does not exist", *req.CategoryID)
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.Status != nil {
		if *req.Status != StatusActive && *req.Status != StatusRetired {
			return nil, apperr.Validation("status must be %q or %q", StatusActive, StatusRetired)
		}
		updates["status"] = *req.Status
	}

	if err := s.db.Model(&p).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to update product")
	}

	s.db.Preload("Category").First(&p, p.ID)

	return &p, nil
}

// RetireProduct marks a product retired. The row stays so order items
// keep pointing at it.
func (s *Service) RetireProduct(id uint) error {
	result := s.db.Model(&Product{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Update("status", StatusRetired)

	if result.Error != nil {
		return apperr.Wrap(result.Error, "failed to retire product")
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("product not found")
	}
	return nil
}

// buildOrderClause resolves caller-supplied sort parameters through a
// fixed whitelist so they never reach the SQL string unchecked.
func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"updated_at": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("products.%s %s", sortBy, sortOrder)
}
