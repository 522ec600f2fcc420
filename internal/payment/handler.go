package payment

import (
	"errors"
	"net/http"

	"ecomove/internal/api"
	"ecomove/internal/auth"
	"ecomove/internal/promo"
	"ecomove/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Preview a payment
// @Description  Shows the discount, the amount to pay and whether the balance covers it
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.Request true "Order"
// @Success      200 {object} payment.Quote
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      422 {object} api.RejectionResponse
// @Router       /payments/quote [post]
func (h *Handler) Quote(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}

	q, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to quote payment")
		return
	}

	c.JSON(http.StatusOK, q)
}

// @Summary      Pay with the wallet
// @Description  Applies the promo code if any, then debits the wallet. 402 means the balance is too low and the client should offer a recharge.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.Request true "Order"
// @Success      201 {object} payment.Receipt
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      402 {object} api.InsufficientFundsResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      422 {object} api.RejectionResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments/checkout [post]
func (h *Handler) Checkout(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}

	receipt, err := h.service.Checkout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "payment failed")
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

func bindRequest(c *gin.Context) (Request, bool) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return Request{}, false
	}

	var req Request
	if !api.BindJSON(c, &req) {
		return Request{}, false
	}
	req.UserID = userID
	return req, true
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrOrderAlreadyProcessed):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case promo.IsRejection(err):
		promo.RespondError(c, err, fallback)
	default:
		wallet.RespondError(c, err, fallback)
	}
}
