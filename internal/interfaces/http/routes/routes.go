// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires every route group onto the API router
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	productHandler := handlers.NewProductHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db, cfg)
	cartHandler := handlers.NewCartHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, cfg)
	reviewHandler := handlers.NewReviewHandler(db, cfg)
	analyticsHandler := handlers.NewAnalyticsHandler(db, redisClient, cfg)

	// Authentication
	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/me", authHandler.GetProfile)
			protected.PUT("/password", authHandler.ChangePassword)
		}
	}

	// Catalog (public)
	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/:id/related", productHandler.GetRelatedProducts)
		products.GET("/:id/reviews", reviewHandler.GetProductReviews)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/:id", categoryHandler.GetCategory)
		categories.GET("/:id/products", categoryHandler.GetCategoryProducts)
	}

	// Cart (per-user, requires authentication)
	cart := rg.Group("/shoppingcart")
	cart.Use(middleware.AuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/add", cartHandler.AddToCart)
		cart.PUT("/items/:id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:id", cartHandler.RemoveFromCart)
		cart.DELETE("/clear", cartHandler.ClearCart)
	}

	// Orders
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)

		adminOrders := orders.Group("/admin")
		adminOrders.Use(middleware.AdminMiddleware())
		{
			adminOrders.GET("/all", orderHandler.AdminGetOrders)
			adminOrders.PUT("/:id/status", orderHandler.AdminUpdateOrderStatus)
		}
	}

	// Reviews
	reviews := rg.Group("/reviews")
	reviews.Use(middleware.AuthMiddleware(cfg))
	{
		reviews.POST("", reviewHandler.CreateReview)
		reviews.GET("/mine", reviewHandler.GetMyReviews)
		reviews.PUT("/:id", reviewHandler.UpdateReview)
		reviews.DELETE("/:id", reviewHandler.DeleteReview)
	}

	// Admin
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/dashboard", analyticsHandler.GetDashboard)

		adminProducts := admin.Group("/products")
		{
			adminProducts.GET("", productHandler.AdminGetProducts)
			adminProducts.GET("/:id", productHandler.AdminGetProduct)
			adminProducts.POST("", productHandler.AdminCreateProduct)
			adminProducts.PUT("/:id", productHandler.AdminUpdateProduct)
			adminProducts.DELETE("/:id", productHandler.AdminRetireProduct)
		}

		adminCategories := admin.Group("/categories")
		{
			adminCategories.GET("", categoryHandler.AdminGetCategories)
			adminCategories.POST("", categoryHandler.AdminCreateCategory)
			adminCategories.PUT("/:id", categoryHandler.AdminUpdateCategory)
			adminCategories.DELETE("/:id", categoryHandler.AdminRetireCategory)
		}

		adminReviews := admin.Group("/reviews")
		{
			adminReviews.GET("", reviewHandler.AdminGetReviews)
			adminReviews.PUT("/:id/approval", reviewHandler.AdminSetApproval)
		}
	}
}
