package handlers

import (
	"github.com/ecopanier/backend/internal/models"
	"github.com/ecopanier/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	cache *services.SettingsCache
	queue services.TaskQueue
}

func NewHealthHandler(cache *services.SettingsCache, queue services.TaskQueue) *HealthHandler {
	return &HealthHandler{cache: cache, queue: queue}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// A settings load error means the platform runs on defaults
	settingsStatus := "ok"
	if err := h.cache.LoadError(); err != nil {
		settingsStatus = "degraded: " + err.Error()
	}

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "ecopanier",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
			"settings":   settingsStatus,
		},
	})
}
