package ecohabit

import (
	"errors"
	"net/http"

	"ecomove/internal/api"
	"ecomove/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type ValidateRequest struct {
	Co2SavedKg decimal.Decimal `json:"co2_saved_kg" swaggertype:"string" example:"15.5"`
	Comment    string          `json:"comment" example:"bus pass verified"`
}

type RejectRequest struct {
	Comment string `json:"comment" binding:"required" example:"proof unreadable"`
}

// @Summary      Declare an eco-habit
// @Tags         eco-habits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ecohabit.SubmitInput true "Declaration"
// @Success      201 {object} ecohabit.Declaration
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /eco-habits [post]
func (h *Handler) Submit(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	var req SubmitInput
	if !api.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Submit(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "failed to submit eco-habit")
		return
	}

	c.JSON(http.StatusCreated, d)
}

// @Summary      List my eco-habits
// @Tags         eco-habits
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size (max 200)"
// @Param        offset query int false "Offset"
// @Success      200 {object} api.PageResponse[ecohabit.Declaration]
// @Failure      401 {object} api.ErrorResponse
// @Router       /eco-habits [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	limit, offset := api.Page(c)

	list, err := h.service.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err, "failed to list eco-habits")
		return
	}

	c.JSON(http.StatusOK, api.PageResponse[Declaration]{Items: list, Limit: limit, Offset: offset})
}

// @Summary      Get one of my eco-habits
// @Tags         eco-habits
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Declaration ID"
// @Success      200 {object} ecohabit.Declaration
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /eco-habits/{id} [get]
func (h *Handler) GetMine(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	d, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load eco-habit")
		return
	}
	// other users' declarations are reported as missing
	if d.UserID != userID {
		respondError(c, ErrNotFound, "")
		return
	}

	c.JSON(http.StatusOK, d)
}

// @Summary      Review queue
// @Description  Admin-only: declarations by status, oldest first
// @Tags         admin,eco-habits
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "pending, validated or rejected" default(pending)
// @Param        limit  query int false "Page size (max 200)"
// @Param        offset query int false "Offset"
// @Success      200 {object} api.PageResponse[ecohabit.Declaration]
// @Failure      400 {object} api.FieldErrorResponse
// @Router       /admin/eco-habits [get]
func (h *Handler) ListByStatus(c *gin.Context) {
	status := Status(c.DefaultQuery("status", string(StatusPending)))
	limit, offset := api.Page(c)

	list, err := h.service.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, err, "failed to list eco-habits")
		return
	}

	c.JSON(http.StatusOK, api.PageResponse[Declaration]{Items: list, Limit: limit, Offset: offset})
}

// @Summary      Validate an eco-habit
// @Description  Admin-only: approves a pending declaration and credits the owner's wallet
// @Tags         admin,eco-habits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string true "Declaration ID"
// @Param        request body ecohabit.ValidateRequest true "Verified CO2 saving"
// @Success      200 {object} ecohabit.Declaration
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/eco-habits/{id}/validate [post]
func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Validate(c.Request.Context(), c.Param("id"), req.Co2SavedKg, req.Comment)
	if err != nil {
		respondError(c, err, "failed to validate eco-habit")
		return
	}

	c.JSON(http.StatusOK, d)
}

// @Summary      Reject an eco-habit
// @Tags         admin,eco-habits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string true "Declaration ID"
// @Param        request body ecohabit.RejectRequest true "Reason"
// @Success      200 {object} ecohabit.Declaration
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/eco-habits/{id}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	var req RejectRequest
	if !api.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Reject(c.Request.Context(), c.Param("id"), req.Comment)
	if err != nil {
		respondError(c, err, "failed to reject eco-habit")
		return
	}

	c.JSON(http.StatusOK, d)
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: ErrNotFound.Error()})
	case errors.Is(err, ErrAlreadyDecided):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: ErrAlreadyDecided.Error()})
	default:
		api.RespondError(c, err, fallback)
	}
}
