package models

import "github.com/shopspring/decimal"

// Status is the lifecycle label of an allocation.
//
// It is derived from the allocation amount and the usage total, with the
// exception of StatusClosed: that one is only ever set by an explicit close
// and is terminal.
type Status string

const (
	StatusAllocated Status = "allocated"
	StatusInUse     Status = "in_use"
	StatusDepleted  Status = "depleted"
	StatusClosed    Status = "closed"
)

// ResolveStatus derives the status for an allocation from its amount and
// its current usage total.
func ResolveStatus(allocated, used decimal.Decimal) Status {
	switch {
	case used.IsZero():
		return StatusAllocated
	case used.GreaterThanOrEqual(allocated):
		return StatusDepleted
	default:
		return StatusInUse
	}
}

// AcceptsUsage reports whether new usage may be recorded in this status.
// Both depleted and closed allocations reject new usage outright.
func (s Status) AcceptsUsage() bool {
	return s != StatusDepleted && s != StatusClosed
}
