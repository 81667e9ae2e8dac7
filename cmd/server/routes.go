package main

import (
	"github.com/ecopanier/backend/internal/middleware"
	"github.com/ecopanier/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for public endpoints
	publicLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", publicLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
		}

		// Public settings subset (no auth)
		api.GET("/settings/public", publicLimiter.Middleware(), svc.settingsHandler.GetPublic)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Pricing quotes (merchants and collectors see role-specific display)
			protected.GET("/pricing/quote", svc.pricingHandler.QuoteCommission)
			protected.POST("/lots/validate", middleware.RoleRequired("merchant"), svc.pricingHandler.ValidateLot)

			// Reservations
			protected.GET("/reservations/quota", svc.reservationHandler.CheckQuota)
			protected.POST("/reservations", middleware.RoleRequired("customer", "beneficiary"), svc.reservationHandler.Reserve)
		}

		// Admin only routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			// Platform settings
			admin.GET("/settings", svc.settingsHandler.GetAll)
			admin.GET("/settings/categories", svc.settingsHandler.ListCategorized)
			admin.PUT("/settings", svc.settingsHandler.SaveAll)
			admin.POST("/settings/reset", svc.settingsHandler.Reset)
			admin.GET("/settings/:key", svc.settingsHandler.GetOne)
			admin.PUT("/settings/:key", svc.settingsHandler.SetOne)
			admin.GET("/settings/:key/history", svc.settingsHandler.GetHistory)

			// System Logs
			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.GET("/system-logs/modules", svc.systemLogHandler.GetModules)
		}
	}
}
