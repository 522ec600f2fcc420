package settings

import (
	"net/http"

	"ecomove/internal/api"
	"ecomove/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	admin Admin
}

func NewHandler(admin Admin) *Handler {
	return &Handler{admin: admin}
}

// UpdateRequest changes only the fields that are present.
type UpdateRequest struct {
	ConversionRate   *decimal.Decimal `json:"conversion_rate" swaggertype:"string" example:"62"`
	PromoMaxDiscount *int64           `json:"promo_max_discount" example:"1000"`
}

// @Summary      Get settings
// @Tags         admin,settings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} settings.Settings
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/settings [get]
func (h *Handler) Get(c *gin.Context) {
	s, err := Snapshot(c.Request.Context(), h.admin)
	if err != nil {
		api.RespondError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Update settings
// @Description  New values apply to decisions made after the change
// @Tags         admin,settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body settings.UpdateRequest true "Settings to change"
// @Success      200 {object} settings.Settings
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/settings [put]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if req.ConversionRate != nil {
		if err := h.admin.SetConversionRate(ctx, *req.ConversionRate); err != nil {
			api.RespondError(c, err, "failed to update conversion rate")
			return
		}
		logger.Info("conversion rate changed", "rate", req.ConversionRate.String())
	}
	if req.PromoMaxDiscount != nil {
		if err := h.admin.SetPromoMaxDiscount(ctx, *req.PromoMaxDiscount); err != nil {
			api.RespondError(c, err, "failed to update promo max discount")
			return
		}
		logger.Info("promo max discount changed", "max_discount", *req.PromoMaxDiscount)
	}

	h.Get(c)
}
