// internal/domain/product/review_dto.go
package product

// CreateReviewRequest represents the request to create a review.
// ProductID may arrive in the body or as the productId query parameter.
type CreateReviewRequest struct {
	ProductID uint   `json:"product_id"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"required,max=2000"`
}

// UpdateReviewRequest represents the request to update a review
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" binding:"omitempty,max=2000"`
}

// ReviewListRequest represents query parameters for listing reviews
type ReviewListRequest struct {
	Rating    *int `form:"rating" binding:"omitempty,min=1,max=5"`
	Page      int  `form:"page,default=1"`
	Limit     int  `form:"pageSize,default=20"`
	Approved  *bool
	ProductID *uint
	UserID    *uint
}

// ReviewListResponse represents a paginated review list
type ReviewListResponse struct {
	Reviews    []ProductReview `json:"reviews"`
	Pagination Pagination      `json:"pagination"`
	Summary    *ReviewSummary  `json:"summary,omitempty"`
}

// ReviewSummary provides review statistics for a product
type ReviewSummary struct {
	TotalReviews    int            `json:"total_reviews"`
	AverageRating   float64        `json:"average_rating"`
	RatingBreakdown map[string]int `json:"rating_breakdown"` // "5": 10, "4": 5, etc.
}
