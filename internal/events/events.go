// Package events publishes ledger mutations for downstream consumers,
// e.g. reporting pipelines.
//
// Publishing is best effort: a failed publish is logged and never fails
// the mutation that triggered it.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeUsageRecorded    = "usage.recorded"
	TypeUsageDeleted     = "usage.deleted"
	TypeAllocationClosed = "allocation.closed"
)

// Message describes a single ledger mutation.
type Message struct {
	Type         string          `json:"type"`
	AllocationID uuid.UUID       `json:"allocationId"`
	UsageID      *uuid.UUID      `json:"usageId,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	UsedTotal    decimal.Decimal `json:"usedTotal"`
	Status       string          `json:"status"`
	Timestamp    time.Time       `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, message Message) error
	Close() error
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
func (Nop) Close() error                           { return nil }
