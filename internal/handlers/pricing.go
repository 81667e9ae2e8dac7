package handlers

import (
	"github.com/ecopanier/backend/internal/middleware"
	"github.com/ecopanier/backend/internal/services"
	"github.com/ecopanier/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// PricingHandler exposes lot validation and commission quote endpoints.
type PricingHandler struct {
	cache *services.SettingsCache
}

func NewPricingHandler(cache *services.SettingsCache) *PricingHandler {
	return &PricingHandler{cache: cache}
}

type validateLotRequest struct {
	Price         float64 `json:"price" binding:"required"`
	DurationHours int     `json:"duration_hours"`
}

// ValidateLot checks a lot's price and availability window against the
// platform rules.
// POST /api/lots/validate
func (h *PricingHandler) ValidateLot(c *gin.Context) {
	var req validateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	settings := h.cache.Current()

	if req.DurationHours == 0 {
		req.DurationHours = settings.DefaultLotDuration
	}

	if err := services.ValidateLotPrice(req.Price, settings); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := services.ValidateLotDuration(req.DurationHours, settings); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"valid":          true,
		"price":          req.Price,
		"duration_hours": req.DurationHours,
	})
}

// QuoteCommission returns the commission breakdown for a gross amount,
// formatted for the caller's role.
// GET /api/pricing/quote?amount=12.50
func (h *PricingHandler) QuoteCommission(c *gin.Context) {
	var query struct {
		Amount float64 `form:"amount" binding:"required"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	settings := h.cache.Current()
	role := middleware.GetRole(c)
	breakdown := services.CalculateMerchantNetAmount(query.Amount, settings)

	response.Success(c, gin.H{
		"breakdown": breakdown,
		"display":   services.FormatAmountWithCommission(query.Amount, settings, role),
	})
}
