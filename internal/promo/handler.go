package promo

import (
	"errors"
	"net/http"
	"time"

	"ecomove/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

type QuoteRequest struct {
	Code        string `json:"code" binding:"required" example:"SAVE10"`
	OrderAmount int64  `json:"order_amount" binding:"required,gt=0" example:"500"`
}

// @Summary      Preview a promo code
// @Description  Evaluates a code against an order amount without consuming it
// @Tags         promo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body promo.QuoteRequest true "Quote payload"
// @Success      200 {object} promo.Result
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      422 {object} api.RejectionResponse
// @Router       /promo/quote [post]
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Quote(c.Request.Context(), req.Code, req.OrderAmount, h.now())
	if err != nil {
		RespondError(c, err, "failed to evaluate promo code")
		return
	}

	c.JSON(http.StatusOK, res)
}

// @Summary      Create a promo code
// @Tags         admin,promo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body promo.CreateInput true "Promo code"
// @Success      201 {object} promo.Code
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/promo-codes [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateInput
	if !api.BindJSON(c, &req) {
		return
	}

	code, err := h.service.Create(c.Request.Context(), req, h.now())
	if err != nil {
		h.respondAdminError(c, err, "failed to create promo code")
		return
	}

	c.JSON(http.StatusCreated, code)
}

// @Summary      List promo codes
// @Tags         admin,promo
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size (max 200)"
// @Param        offset query int false "Offset"
// @Success      200 {object} api.PageResponse[promo.Code]
// @Router       /admin/promo-codes [get]
func (h *Handler) List(c *gin.Context) {
	limit, offset := api.Page(c)

	codes, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		api.RespondError(c, err, "failed to list promo codes")
		return
	}

	c.JSON(http.StatusOK, api.PageResponse[Code]{Items: codes, Limit: limit, Offset: offset})
}

// @Summary      Get a promo code
// @Tags         admin,promo
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Promo code"
// @Success      200 {object} promo.Code
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/promo-codes/{code} [get]
func (h *Handler) Get(c *gin.Context) {
	code, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondAdminError(c, err, "failed to load promo code")
		return
	}

	c.JSON(http.StatusOK, code)
}

// @Summary      Update a promo code
// @Tags         admin,promo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code    path string true "Promo code"
// @Param        request body promo.UpdateInput true "Fields to change"
// @Success      200 {object} promo.Code
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/promo-codes/{code} [patch]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateInput
	if !api.BindJSON(c, &req) {
		return
	}

	code, err := h.service.Update(c.Request.Context(), c.Param("code"), req, h.now())
	if err != nil {
		h.respondAdminError(c, err, "failed to update promo code")
		return
	}

	c.JSON(http.StatusOK, code)
}

// @Summary      Delete a promo code
// @Description  Codes that were already redeemed are deactivated instead
// @Tags         admin,promo
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Promo code"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/promo-codes/{code} [delete]
func (h *Handler) Delete(c *gin.Context) {
	deleted, err := h.service.Delete(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondAdminError(c, err, "failed to delete promo code")
		return
	}

	if !deleted {
		c.JSON(http.StatusOK, api.MessageResponse{Message: "promo code deactivated"})
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "promo code deleted"})
}

func (h *Handler) respondAdminError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrCodeNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrCodeExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	default:
		api.RespondError(c, err, fallback)
	}
}

// RespondError reports code rejections as 422 with a machine-readable reason.
func RespondError(c *gin.Context, err error, fallback string) {
	if IsRejection(err) {
		c.JSON(http.StatusUnprocessableEntity, api.RejectionResponse{Error: err.Error(), Code: Reason(err)})
		return
	}
	api.RespondError(c, err, fallback)
}
