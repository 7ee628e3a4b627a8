package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")

	ErrAmountNotPositive  = errors.New("amounts must be larger than zero")
	ErrSchoolIDRequired   = errors.New("the school ID must be set")
	ErrFiscalYearRequired = errors.New("the fiscal year must be set")
	ErrCategoryInvalid    = errors.New("the category is not one of the known categories")
	ErrSchoolIDImmutable  = errors.New("the school of an allocation cannot be changed")

	ErrPurposeRequired = errors.New("the purpose of a usage record must be set")

	ErrAllocationNotActive  = errors.New("the allocation is depleted or closed, no new usage can be recorded")
	ErrAllocationBelowUsage = errors.New("the allocation amount cannot be lower than the usage already recorded")
	ErrAllocationHasUsage   = errors.New("the allocation has usage records and cannot be deleted")

	ErrTransientConflict = errors.New("the operation conflicted with a concurrent write, please retry")
)

// InsufficientFundsError is returned when a usage record would
// push the usage total of an allocation over its amount. It carries
// both figures so that callers can offer a corrected amount.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("the requested amount exceeds the remaining budget: %s is available, %s was requested", e.Available, e.Requested)
}
