package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/repository"
	"github.com/mamadbah2/praya-stock/internal/service/auth"
	"github.com/mamadbah2/praya-stock/internal/service/ledger"
	"github.com/mamadbah2/praya-stock/internal/service/reporting"
	"github.com/mamadbah2/praya-stock/internal/spreadsheet"
)

// statusFor maps domain errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrItemHasHistory):
		return http.StatusConflict
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrUnknownItemCode),
		errors.Is(err, ledger.ErrUnknownItem),
		errors.Is(err, ledger.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidItem),
		errors.Is(err, ledger.ErrNegativeStock),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidSource),
		errors.Is(err, ledger.ErrMissingDetail),
		errors.Is(err, ledger.ErrEmptyBatch),
		errors.Is(err, spreadsheet.ErrEmptySpreadsheet),
		errors.Is(err, spreadsheet.ErrMissingColumn),
		errors.Is(err, spreadsheet.ErrInvalidRow),
		errors.Is(err, reporting.ErrInvalidStatus),
		errors.Is(err, reporting.ErrInvalidWindow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Internal errors are logged
// and replaced with a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "failed to process request, please try again"})
		return
	}

	logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
