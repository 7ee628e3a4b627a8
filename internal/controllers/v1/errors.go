package v1

import (
	"errors"
	"net/http"

	"github.com/district-ledger/backend/internal/models"
)

var (
	errForbidden        = errors.New("your scope does not include this resource")
	errBudgetIDRequired = errors.New("the budget_id field must be set")
)

// status returns the appropriate HTTP status for an error
func status(err error) int {
	var insufficientFunds *models.InsufficientFundsError
	if errors.As(err, &insufficientFunds) {
		return http.StatusPaymentRequired
	}

	switch {
	case errors.Is(err, models.ErrGeneral):
		return http.StatusInternalServerError

	case errors.Is(err, models.ErrResourceNotFound):
		return http.StatusNotFound

	case errors.Is(err, errForbidden):
		return http.StatusForbidden

	case errors.Is(err, models.ErrAllocationNotActive),
		errors.Is(err, models.ErrAllocationHasUsage),
		errors.Is(err, models.ErrTransientConflict):
		return http.StatusConflict

	default:
		return http.StatusBadRequest
	}
}
