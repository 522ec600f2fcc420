package api

import (
	"errors"
	"net/http"
	"strconv"

	"ecomove/internal/apperr"
	"ecomove/internal/ledger"
	"ecomove/internal/logger"

	"github.com/gin-gonic/gin"
)

// RespondError writes the response for errors shared by every handler.
// Anything it does not recognise is logged and reported as a 500 with
// fallback as the message.
func RespondError(c *gin.Context, err error, fallback string) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		RespondWithValidationErrors(c, []FieldError{{Field: ve.Field, Message: ve.Message}})
	case errors.Is(err, apperr.ErrLedgerWrite):
		logger.Error("ledger write failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "ledger write failed, please retry"})
	default:
		logger.Error(fallback, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

// Page reads and clamps the limit and offset query parameters.
func Page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return ledger.ClampPage(limit, offset)
}
