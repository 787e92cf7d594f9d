// internal/domain/product/review_service.go
package product

import (
	"fmt"
	"math"
	"strings"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
	"gorm.io/gorm"
)

// ReviewService handles review business logic
type ReviewService struct {
	db     *gorm.DB
	config *config.Config
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB, cfg *config.Config) *ReviewService {
	return &ReviewService{
		db:     db,
		config: cfg,
	}
}

// CreateReview creates a new product review. One review per user per
// product; when the purchase gate is on, the user must have a delivered
// order containing the product.
func (s *ReviewService) CreateReview(userID uint, req *CreateReviewRequest) (*ProductReview, error) {
	// Verify product exists and is active
	var p Product
	if err := s.db.Where("id = ? AND status = ?", req.ProductID, StatusActive).First(&p).Error; err != nil {
		return nil, apperr.NotFound("product not found")
	}

	// Check if user has already reviewed this product
	var existing ProductReview
	result := s.db.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&existing)
	if result.Error == nil {
		return nil, apperr.Conflict("you have already reviewed this product")
	}

	if s.config.Checkout.ReviewsRequirePurchase && !s.hasDeliveredPurchase(userID, req.ProductID) {
		return nil, apperr.Forbidden("you can only review products from delivered orders")
	}

	review := ProductReview{
		ProductID:  req.ProductID,
		UserID:     userID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
		IsApproved: true,
	}

	if err := s.db.Create(&review).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to create review")
	}

	s.attachReviewerName(&review)
	return &review, nil
}

// GetProductReviews retrieves the approved reviews of a product with
// pagination, an optional rating filter and a rating summary.
func (s *ReviewService) GetProductReviews(productID uint, req *ReviewListRequest) (*ReviewListResponse, error) {
	var p Product
	if err := s.db.Where("id = ? AND status = ?", productID, StatusActive).First(&p).Error; err != nil {
		return nil, apperr.NotFound("product not found")
	}

	approved := true
	req.ProductID = &productID
	req.Approved = &approved

	resp, err := s.listReviews(req)
	if err != nil {
		return nil, err
	}

	summary := s.getReviewSummary(productID)
	resp.Summary = &summary
	return resp, nil
}

// GetUserReviews retrieves all reviews written by a user, approved or not.
func (s *ReviewService) GetUserReviews(userID uint, req *ReviewListRequest) (*ReviewListResponse, error) {
	req.UserID = &userID
	return s.listReviews(req)
}

// GetAllReviews retrieves every review for admin moderation.
func (s *ReviewService) GetAllReviews(req *ReviewListRequest) (*ReviewListResponse, error) {
	return s.listReviews(req)
}

// UpdateReview updates a review. Only the author may edit it.
func (s *ReviewService) UpdateReview(reviewID, userID uint, req *UpdateReviewRequest) (*ProductReview, error) {
	var review ProductReview
	if err := s.db.First(&review, reviewID).Error; err != nil {
		return nil, apperr.NotFound("review not found")
	}

	if review.UserID != userID {
		return nil, apperr.Forbidden("you cannot edit this review")
	}

	updates := make(map[string]interface{})
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = strings.TrimSpace(*req.Comment)
	}

	if err := s.db.Model(&review).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to update review")
	}

	s.attachReviewerName(&review)
	return &review, nil
}

// DeleteReview deletes a review. Only the author may delete it.
func (s *ReviewService) DeleteReview(reviewID, userID uint) error {
	var review ProductReview
	if err := s.db.First(&review, reviewID).Error; err != nil {
		return apperr.NotFound("review not found")
	}

	if review.UserID != userID {
		return apperr.Forbidden("you cannot delete this review")
	}

	if err := s.db.Delete(&review).Error; err != nil {
		return apperr.Wrap(err, "failed to delete review")
	}

	return nil
}

// SetApproval approves or rejects a review (admin moderation).
func (s *ReviewService) SetApproval(reviewID uint, approved bool) (*ProductReview, error) {
	var review ProductReview
	if err := s.db.First(&review, reviewID).Error; err != nil {
		return nil, apperr.NotFound("review not found")
	}

	if err := s.db.Model(&review).Update("is_approved", approved).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to update review status")
	}

	s.attachReviewerName(&review)
	return &review, nil
}

func (s *ReviewService) listReviews(req *ReviewListRequest) (*ReviewListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&ProductReview{})

	if req.ProductID != nil {
		query = query.Where("product_id = ?", *req.ProductID)
	}
	if req.UserID != nil {
		query = query.Where("user_id = ?", *req.UserID)
	}
	if req.Rating != nil {
		query = query.Where("rating = ?", *req.Rating)
	}
	if req.Approved != nil {
		query = query.Where("is_approved = ?", *req.Approved)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to count reviews")
	}

	var reviews []ProductReview
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&reviews).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to retrieve reviews")
	}

	for i := range reviews {
		s.attachReviewerName(&reviews[i])
	}

	return &ReviewListResponse{
		Reviews:    reviews,
		Pagination: NewPagination(req.Page, req.Limit, total),
	}, nil
}

// hasDeliveredPurchase probes orders directly so the package does not
// depend on the order domain.
func (s *ReviewService) hasDeliveredPurchase(userID, productID uint) bool {
	var exists bool
	s.db.Raw(`
		SELECT EXISTS(
			SELECT 1 FROM orders o
			JOIN order_items oi ON o.id = oi.order_id
			WHERE o.user_id = ? AND oi.product_id = ?
			AND o.status = 'delivered'
		)
	`, userID, productID).Scan(&exists)
	return exists
}

func (s *ReviewService) attachReviewerName(review *ProductReview) {
	var name struct {
		FirstName string
		LastName  string
	}
	s.db.Table("users").Select("first_name, last_name").Where("id = ?", review.UserID).Scan(&name)
	review.ReviewerName = strings.TrimSpace(name.FirstName + " " + name.LastName)
}

func (s *ReviewService) getReviewSummary(productID uint) ReviewSummary {
	var summary ReviewSummary

	var totalReviews int64
	s.db.Model(&ProductReview{}).Where("product_id = ? AND is_approved = ?", productID, true).Count(&totalReviews)
	summary.TotalReviews = int(totalReviews)

	var avgRating float64
	s.db.Model(&ProductReview{}).
		Where("product_id = ? AND is_approved = ?", productID, true).
		Select("COALESCE(AVG(rating), 0)").Scan(&avgRating)
	summary.AverageRating = math.Round(avgRating*100) / 100

	summary.RatingBreakdown = make(map[string]int)
	for i := 1; i <= 5; i++ {
		var count int64
		s.db.Model(&ProductReview{}).
			Where("product_id = ? AND is_approved = ? AND rating = ?", productID, true, i).
			Count(&count)
		summary.RatingBreakdown[fmt.Sprintf("%d", i)] = int(count)
	}

	return summary
}
