package handlers

import (
	"github.com/ecopanier/backend/internal/middleware"
	"github.com/ecopanier/backend/internal/services"
	"github.com/ecopanier/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// ReservationHandler enforces daily reservation quotas.
type ReservationHandler struct {
	quota *services.ReservationQuotaService
}

func NewReservationHandler(quota *services.ReservationQuotaService) *ReservationHandler {
	return &ReservationHandler{quota: quota}
}

// CheckQuota reports whether the current user can still reserve today.
// GET /api/reservations/quota
func (h *ReservationHandler) CheckQuota(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	allowed, reason := h.quota.CheckQuota(userID, role)
	response.Success(c, gin.H{
		"allowed": allowed,
		"reason":  reason,
	})
}

// Reserve counts a reservation against the current user's daily quota.
// Check and count are a single atomic step, so concurrent requests at the
// limit cannot overshoot it.
// POST /api/reservations
func (h *ReservationHandler) Reserve(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	allowed, reason, count := h.quota.TryRecord(userID, role)
	if !allowed {
		response.Forbidden(c, reason)
		return
	}

	response.Created(c, gin.H{"reservations_today": count})
}
