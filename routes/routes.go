package routes

import (
	"time"

	"salontime-backend/cache"
	"salontime-backend/events"
	"salontime-backend/handlers"
	"salontime-backend/middleware"
	"salontime-backend/models"
	"salontime-backend/search"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries the shared infrastructure the handlers are built from.
type Deps struct {
	DB          *gorm.DB
	Cache       cache.Cache
	Events      events.Publisher
	Search      *search.Service
	Location    *time.Location
	RateLimiter *middleware.RateLimiter
}

func SetupRoutes(r *gin.Engine, d Deps) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: d.DB}
	categoryHandler := &handlers.CategoryHandler{DB: d.DB, Cache: d.Cache}
	salonHandler := &handlers.SalonHandler{DB: d.DB, Cache: d.Cache}
	serviceHandler := &handlers.ServiceHandler{DB: d.DB, Cache: d.Cache}
	searchHandler := &handlers.SearchHandler{Search: d.Search}
	bookingHandler := &handlers.BookingHandler{DB: d.DB, Events: d.Events, Location: d.Location}
	reviewHandler := &handlers.ReviewHandler{DB: d.DB, Events: d.Events, Cache: d.Cache}
	favoriteHandler := &handlers.FavoriteHandler{DB: d.DB}
	analyticsHandler := &handlers.AnalyticsHandler{DB: d.DB, Location: d.Location}

	api := r.Group("/api")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Middleware())
	}

	// Public routes
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.RefreshTokenHandler)

		api.GET("/categories", categoryHandler.GetCategories)

		// Salon search is served under both paths clients use
		api.GET("/salons/search", searchHandler.SearchSalons)
		api.GET("/search/salons", searchHandler.SearchSalons)

		api.GET("/salons/:id", salonHandler.GetSalon)
		api.GET("/salons/:id/services", serviceHandler.GetSalonServices)
		api.GET("/salons/:id/reviews", reviewHandler.GetSalonReviews)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
		protected.PUT("/auth/password", authHandler.ChangePassword)

		protected.GET("/bookings/transitions", bookingHandler.GetBookingTransitions)
		protected.GET("/bookings", bookingHandler.GetBookings)
		protected.GET("/bookings/:id", bookingHandler.GetBooking)
		protected.PUT("/bookings/:id/status", bookingHandler.UpdateBookingStatus)

		client := protected.Group("")
		client.Use(middleware.RequireRole(models.RoleClient))
		client.POST("/bookings", bookingHandler.CreateBooking)
		client.POST("/bookings/:id/review", reviewHandler.CreateReview)

		protected.GET("/favorites", favoriteHandler.GetFavorites)
		protected.POST("/favorites/:salonId", favoriteHandler.AddFavorite)
		protected.DELETE("/favorites/:salonId", favoriteHandler.RemoveFavorite)

		protected.POST("/salons", middleware.SalonOwnerMiddleware(), salonHandler.CreateSalon)
	}

	// Salon owner routes
	owner := api.Group("/owner")
	owner.Use(middleware.AuthMiddleware())
	owner.Use(middleware.SalonOwnerMiddleware())
	{
		owner.GET("/salon", salonHandler.GetMySalon)
		owner.PUT("/salon", salonHandler.UpdateMySalon)
		owner.PUT("/salon/hours", salonHandler.UpdateBusinessHours)
		owner.DELETE("/salon", salonHandler.DeactivateMySalon)

		owner.GET("/services", serviceHandler.GetMyServices)
		owner.POST("/services", serviceHandler.CreateService)
		owner.PUT("/services/:id", serviceHandler.UpdateService)
		owner.DELETE("/services/:id", serviceHandler.DeleteService)

		owner.GET("/analytics", analyticsHandler.GetOwnerAnalytics)
	}

	// Admin routes (require admin role)
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/users", authHandler.ListUsers)
		admin.PUT("/users/:id", authHandler.UpdateUser)

		admin.GET("/salons", salonHandler.ListSalons)
		admin.PUT("/salons/:id/feature", salonHandler.FeatureSalon)

		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
