// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/config"
	"github.com/javajoker/agriconnect-backend/internal/handlers"
	"github.com/javajoker/agriconnect-backend/internal/middleware"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/realtime"
	"github.com/javajoker/agriconnect-backend/internal/services"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

// Router bundles the HTTP engine with the long-lived pieces that must be
// shut down with it.
type Router struct {
	Engine *gin.Engine
	Hub    *realtime.Hub

	limiters []*middleware.RateLimiter
}

// Close disconnects realtime clients and stops the rate limiter janitors.
func (r *Router) Close() {
	r.Hub.Close()
	for _, limiter := range r.limiters {
		limiter.Stop()
	}
}

func Initialize(db *gorm.DB, cfg *config.Config) (*Router, error) {
	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	hub := realtime.NewHub()

	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	notificationService := services.NewNotificationService(db, hub, services.NewMailer(cfg))
	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)
	productService := services.NewProductService(db)
	orderService := services.NewOrderService(db, notificationService)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	orderHandler := handlers.NewOrderHandler(orderService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(adminService)
	realtimeHandler := handlers.NewRealtimeHandler(hub, cfg.Realtime.AllowedOrigins, cfg.Realtime.SendBuffer)

	rt := &Router{Hub: hub}

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Realtime.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.Metrics())

	authLimit := func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		general := middleware.NewRateLimiter("general", rate.Limit(cfg.RateLimit.RequestsPerSec), cfg.RateLimit.Burst)
		auth := middleware.NewRateLimiter("auth", rate.Every(time.Minute/time.Duration(max(cfg.RateLimit.AuthPerMinute, 1))), max(cfg.RateLimit.AuthPerMinute, 1))
		rt.limiters = append(rt.limiters, general, auth)

		r.Use(general.Middleware())
		authLimit = auth.Middleware()
	}

	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !storageService.UsesS3() {
		r.Static("/uploads", cfg.Uploads.Dir)
	}

	r.GET("/ws", middleware.AuthRequired(authService), realtimeHandler.Connect)

	authRequired := middleware.AuthRequired(authService)
	farmerOnly := middleware.RoleRequired(models.RoleFarmer)
	buyerOnly := middleware.RoleRequired(models.RoleBuyer)

	api := r.Group("/api")
	{
		// Authentication routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authLimit, authHandler.Register)
			auth.POST("/login", authLimit, authHandler.Login)
			auth.POST("/refresh", authLimit, authHandler.RefreshToken)
			auth.POST("/logout", authRequired, authHandler.Logout)
			auth.GET("/me", authRequired, authHandler.Me)
			auth.GET("/users/:id", authHandler.GetUser)
		}

		users := api.Group("/users")
		users.Use(authRequired)
		{
			users.PUT("/profile", userHandler.UpdateProfile)
		}

		// Product routes
		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/farmer/:farmerId", productHandler.GetFarmerProducts)
			products.GET("/:id", productHandler.GetProduct)

			protected := products.Group("")
			protected.Use(authRequired)
			{
				protected.POST("", farmerOnly, productHandler.CreateProduct)
				protected.POST("/upload-image", farmerOnly, productHandler.UploadImage)
				protected.PUT("/:id", farmerOnly, productHandler.UpdateProduct)
				protected.DELETE("/:id", farmerOnly, productHandler.DeleteProduct)
				protected.POST("/:id/view", productHandler.RecordView)
				protected.POST("/:id/reviews", buyerOnly, productHandler.AddReview)
			}
		}

		// Order routes
		orders := api.Group("/orders")
		orders.Use(authRequired)
		{
			orders.POST("", buyerOnly, orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id/status", farmerOnly, orderHandler.UpdateStatus)
			orders.DELETE("/:id", buyerOnly, orderHandler.CancelOrder)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		notifications.Use(authRequired)
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(authRequired, middleware.RoleRequired(models.RoleAdmin))
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/verification", adminHandler.UpdateUserVerification)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}
	}

	rt.Engine = r
	return rt, nil
}
