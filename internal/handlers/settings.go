package handlers

import (
	"time"

	"github.com/ecopanier/backend/internal/middleware"
	"github.com/ecopanier/backend/internal/services"
	"github.com/ecopanier/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SettingsHandler exposes the admin settings API and the public subset.
type SettingsHandler struct {
	svc   *services.SettingsService
	cache *services.SettingsCache
	queue services.TaskQueue
}

func NewSettingsHandler(db *gorm.DB, cache *services.SettingsCache, queue services.TaskQueue) *SettingsHandler {
	return &SettingsHandler{
		svc:   services.NewSettingsService(db),
		cache: cache,
		queue: queue,
	}
}

// GetAll returns the full typed settings object.
// GET /api/admin/settings
func (h *SettingsHandler) GetAll(c *gin.Context) {
	settings, err := h.svc.LoadAll()
	if err != nil {
		// Partial reads still return a usable object; surface the load
		// problem without failing the request.
		response.Success(c, gin.H{"settings": settings, "load_error": err.Error()})
		return
	}
	response.Success(c, gin.H{"settings": settings})
}

// ListCategorized returns settings grouped by category with metadata,
// for the admin settings screen.
// GET /api/admin/settings/categories
func (h *SettingsHandler) ListCategorized(c *gin.Context) {
	response.Success(c, h.svc.ListSettingInfos())
}

// SaveAll persists a full settings object.
// PUT /api/admin/settings
func (h *SettingsHandler) SaveAll(c *gin.Context) {
	var req services.PlatformSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	before := h.cache.Current()
	actorID := middleware.GetUserID(c)

	if err := h.svc.SaveAll(&req, actorID); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	h.refreshAndNotify(c, before)
	response.Success(c, h.cache.Current())
}

// GetOne returns a single setting value by its camelCase key.
// GET /api/admin/settings/:key
func (h *SettingsHandler) GetOne(c *gin.Context) {
	key := c.Param("key")
	value, err := h.svc.GetOne(key)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}
	response.Success(c, gin.H{"key": key, "value": value})
}

// SetOne updates a single setting by its camelCase key.
// PUT /api/admin/settings/:key
func (h *SettingsHandler) SetOne(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Value any `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	before := h.cache.Current()
	actorID := middleware.GetUserID(c)

	if err := h.svc.SetOne(key, req.Value, actorID); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	h.refreshAndNotify(c, before)

	value, err := h.svc.GetOne(key)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"key": key, "value": value})
}

// GetHistory returns the change history for one setting, newest first.
// GET /api/admin/settings/:key/history
func (h *SettingsHandler) GetHistory(c *gin.Context) {
	key := c.Param("key")
	response.Success(c, gin.H{"key": key, "history": h.svc.GetHistory(key)})
}

// Reset restores every setting to its default value.
// POST /api/admin/settings/reset
func (h *SettingsHandler) Reset(c *gin.Context) {
	before := h.cache.Current()
	actorID := middleware.GetUserID(c)

	if err := h.svc.ResetAll(actorID); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	h.refreshAndNotify(c, before)
	response.Success(c, h.cache.Current())
}

// GetPublic returns the subset of settings safe to expose without auth.
// GET /api/settings/public
func (h *SettingsHandler) GetPublic(c *gin.Context) {
	s := h.cache.Current()
	response.Success(c, gin.H{
		"platform_name":        s.PlatformName,
		"platform_email":       s.PlatformEmail,
		"support_phone":        s.SupportPhone,
		"min_lot_price":        s.MinLotPrice,
		"max_lot_price":        s.MaxLotPrice,
		"default_lot_duration": s.DefaultLotDuration,
	})
}

// refreshAndNotify reloads the cache after a write and enqueues a change
// notification for the fields that actually changed.
func (h *SettingsHandler) refreshAndNotify(c *gin.Context, before *services.PlatformSettings) {
	if err := h.cache.Refresh(); err != nil {
		return
	}

	changes := services.DiffSettings(before, h.cache.Current())
	if len(changes) == 0 || h.queue == nil {
		return
	}

	actorID := middleware.GetUserID(c)
	task := &services.SettingsChangedTask{
		Actor:     middleware.GetUsername(c),
		Changes:   changes,
		ChangedAt: time.Now().Format(time.RFC3339),
	}
	if actorID > 0 {
		task.ActorID = &actorID
	}
	h.queue.Enqueue(task)
}
