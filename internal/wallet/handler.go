package wallet

import (
	"errors"
	"net/http"

	"ecomove/internal/api"
	"ecomove/internal/auth"
	"ecomove/internal/ledger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type RechargeRequest struct {
	Amount int64          `json:"amount" binding:"required,gt=0" example:"5000"`
	Method RechargeMethod `json:"method" binding:"required,oneof=mobile_money card" example:"mobile_money"`
}

type CreditRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0" example:"620"`
	Description string `json:"description" binding:"required" example:"goodwill gesture"`
	Category    string `json:"category" example:"general"`
}

// @Summary      Get my wallet
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} wallet.Wallet
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /wallet [get]
func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	h.writeWallet(c, userID)
}

// @Summary      List my transactions
// @Description  Newest first
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size (max 200)"
// @Param        offset query int false "Offset"
// @Success      200 {object} api.PageResponse[ledger.Transaction]
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	h.writeTransactions(c, userID)
}

// @Summary      Recharge my wallet
// @Description  Credits the wallet from mobile money or card. The rails are stubbed.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body wallet.RechargeRequest true "Recharge payload"
// @Success      201 {object} ledger.Transaction
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /wallet/recharge [post]
func (h *Handler) Recharge(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	var req RechargeRequest
	if !api.BindJSON(c, &req) {
		return
	}

	txn, err := h.service.Recharge(c.Request.Context(), userID, req.Amount, req.Method)
	if err != nil {
		RespondError(c, err, "failed to recharge wallet")
		return
	}

	c.JSON(http.StatusCreated, txn)
}

// @Summary      Get a user's wallet
// @Tags         admin,wallet
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Success      200 {object} wallet.Wallet
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/wallets/{userID} [get]
func (h *Handler) AdminGetWallet(c *gin.Context) {
	h.writeWallet(c, c.Param("userID"))
}

// @Summary      List a user's transactions
// @Tags         admin,wallet
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Param        limit  query int false "Page size (max 200)"
// @Param        offset query int false "Offset"
// @Success      200 {object} api.PageResponse[ledger.Transaction]
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/wallets/{userID}/transactions [get]
func (h *Handler) AdminListTransactions(c *gin.Context) {
	h.writeTransactions(c, c.Param("userID"))
}

// @Summary      Credit a user's wallet
// @Description  Admin-only manual credit
// @Tags         admin,wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID  path string true "User ID"
// @Param        request body wallet.CreditRequest true "Credit payload"
// @Success      201 {object} ledger.Transaction
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/wallets/{userID}/credit [post]
func (h *Handler) AdminCredit(c *gin.Context) {
	var req CreditRequest
	if !api.BindJSON(c, &req) {
		return
	}

	category, err := ledger.ParseCategory(req.Category)
	if err != nil {
		RespondError(c, err, "failed to credit wallet")
		return
	}

	txn, err := h.service.Credit(c.Request.Context(), c.Param("userID"), req.Amount, req.Description, category)
	if err != nil {
		RespondError(c, err, "failed to credit wallet")
		return
	}

	c.JSON(http.StatusCreated, txn)
}

func (h *Handler) writeWallet(c *gin.Context, userID string) {
	w, err := h.service.GetWallet(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err, "failed to load wallet")
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) writeTransactions(c *gin.Context, userID string) {
	limit, offset := api.Page(c)

	txs, err := h.service.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		RespondError(c, err, "failed to load transactions")
		return
	}

	c.JSON(http.StatusOK, api.PageResponse[ledger.Transaction]{Items: txs, Limit: limit, Offset: offset})
}

// RespondError adds the insufficient funds response to api.RespondError.
func RespondError(c *gin.Context, err error, fallback string) {
	var insufficient *InsufficientFundsError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusPaymentRequired, api.InsufficientFundsResponse{
			Error:     ErrInsufficientFunds.Error(),
			Balance:   insufficient.Balance,
			Requested: insufficient.Requested,
			Shortfall: insufficient.Shortfall(),
			Recharge:  true,
		})
		return
	}
	api.RespondError(c, err, fallback)
}
