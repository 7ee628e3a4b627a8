// Package ledger owns the balance safety of allocations.
//
// Every mutation that touches an allocation balance goes through this
// package: it serializes RecordUsage, DeleteUsage, Close, UpdateAllocation
// and DeleteAllocation per allocation so that the usage total can never
// exceed the allocation amount, and it keeps the persisted UsedTotal and
// Status columns consistent with the usage records.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/district-ledger/backend/internal/events"
	"github.com/district-ledger/backend/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Publisher receives an event for every successful mutation.
// It is replaced in main when a broker is configured.
var Publisher events.Publisher = events.Nop{}

var (
	locksMu sync.Mutex
	locks   = make(map[uuid.UUID]*sync.Mutex)
)

// lockFor returns the mutex serializing mutations of one allocation.
// Mutations on different allocations proceed in parallel.
func lockFor(id uuid.UUID) *sync.Mutex {
	locksMu.Lock()
	defer locksMu.Unlock()

	if _, ok := locks[id]; !ok {
		locks[id] = &sync.Mutex{}
	}

	return locks[id]
}

// maxRetries bounds how often a transaction is retried on write
// contention before ErrTransientConflict is surfaced to the caller.
const maxRetries = 3

func isBusy(err error) bool {
	if err == nil {
		return false
	}

	s := err.Error()
	return strings.Contains(s, "database is locked") || strings.Contains(s, "SQLITE_BUSY")
}

// inTransaction runs fn in a database transaction, retrying on store
// contention. All other errors surface unchanged and roll back.
func inTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err = models.DB.WithContext(ctx).Transaction(fn)
		if !isBusy(err) {
			return err
		}

		time.Sleep(10 * time.Millisecond)
	}

	return models.ErrTransientConflict
}

// RecordUsage debits an expenditure against an allocation.
//
// The bounds check and the write happen atomically while the allocation
// lock is held: of two concurrent calls that each fit the remaining
// balance but jointly exceed it, exactly one succeeds.
func RecordUsage(ctx context.Context, record models.UsageRecord) (models.UsageRecord, models.Allocation, error) {
	mu := lockFor(record.AllocationID)
	mu.Lock()
	defer mu.Unlock()

	var allocation models.Allocation

	err := inTransaction(ctx, func(tx *gorm.DB) error {
		err := tx.First(&allocation, "id = ?", record.AllocationID).Error
		if err != nil {
			return err
		}

		if !allocation.Status.AcceptsUsage() {
			return models.ErrAllocationNotActive
		}

		remaining := allocation.Remaining()
		if record.Amount.GreaterThan(remaining) {
			return &models.InsufficientFundsError{
				Available: remaining,
				Requested: record.Amount,
			}
		}

		err = tx.Create(&record).Error
		if err != nil {
			return err
		}

		allocation.UsedTotal = allocation.UsedTotal.Add(record.Amount)
		allocation.Status = models.ResolveStatus(allocation.Amount, allocation.UsedTotal)

		return tx.Model(&models.Allocation{}).
			Where("id = ?", allocation.ID).
			Updates(map[string]any{
				"used_total": allocation.UsedTotal,
				"status":     allocation.Status,
			}).Error
	})
	if err != nil {
		return models.UsageRecord{}, models.Allocation{}, err
	}

	publish(ctx, events.Message{
		Type:         events.TypeUsageRecorded,
		AllocationID: allocation.ID,
		UsageID:      &record.ID,
		Amount:       record.Amount,
		UsedTotal:    allocation.UsedTotal,
		Status:       string(allocation.Status),
	})

	return record, allocation, nil
}

// DeleteUsage removes a usage record and reverses its effect on the
// allocation balance. A closed allocation stays closed, otherwise the
// status is re-derived from the new usage total.
func DeleteUsage(ctx context.Context, id uuid.UUID) (models.Allocation, error) {
	var record models.UsageRecord
	err := models.DB.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		return models.Allocation{}, err
	}

	mu := lockFor(record.AllocationID)
	mu.Lock()
	defer mu.Unlock()

	var allocation models.Allocation

	err = inTransaction(ctx, func(tx *gorm.DB) error {
		// Re-read under the lock, a concurrent delete may have won
		err := tx.First(&record, "id = ?", id).Error
		if err != nil {
			return err
		}

		err = tx.First(&allocation, "id = ?", record.AllocationID).Error
		if err != nil {
			return err
		}

		err = tx.Delete(&record).Error
		if err != nil {
			return err
		}

		allocation.UsedTotal = allocation.UsedTotal.Sub(record.Amount)
		allocation.Status = nextStatus(allocation)

		return tx.Model(&models.Allocation{}).
			Where("id = ?", allocation.ID).
			Updates(map[string]any{
				"used_total": allocation.UsedTotal,
				"status":     allocation.Status,
			}).Error
	})
	if err != nil {
		return models.Allocation{}, err
	}

	publish(ctx, events.Message{
		Type:         events.TypeUsageDeleted,
		AllocationID: allocation.ID,
		UsageID:      &record.ID,
		Amount:       record.Amount,
		UsedTotal:    allocation.UsedTotal,
		Status:       string(allocation.Status),
	})

	return allocation, nil
}

// Close sets an allocation to the terminal closed status. Closing an
// already closed allocation is a no-op.
func Close(ctx context.Context, id uuid.UUID) (models.Allocation, error) {
	mu := lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	var allocation models.Allocation
	var changed bool

	err := inTransaction(ctx, func(tx *gorm.DB) error {
		changed = false

		err := tx.First(&allocation, "id = ?", id).Error
		if err != nil {
			return err
		}

		if allocation.Status == models.StatusClosed {
			return nil
		}

		allocation.Status = models.StatusClosed
		changed = true

		return tx.Model(&models.Allocation{}).
			Where("id = ?", allocation.ID).
			Updates(map[string]any{"status": models.StatusClosed}).Error
	})
	if err != nil {
		return models.Allocation{}, err
	}

	// Closing an already closed allocation publishes no second event
	if changed {
		publish(ctx, events.Message{
			Type:         events.TypeAllocationClosed,
			AllocationID: allocation.ID,
			UsedTotal:    allocation.UsedTotal,
			Status:       string(allocation.Status),
		})
	}

	return allocation, nil
}

// UpdateAllocation applies a metadata update to an allocation. The update
// runs under the allocation lock since an amount change races with
// concurrent usage recording.
func UpdateAllocation(ctx context.Context, id uuid.UUID, fields []any, update models.Allocation) (models.Allocation, error) {
	mu := lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	var allocation models.Allocation

	err := inTransaction(ctx, func(tx *gorm.DB) error {
		err := tx.First(&allocation, "id = ?", id).Error
		if err != nil {
			return err
		}

		err = tx.Model(&allocation).Select("", fields...).Updates(update).Error
		if err != nil {
			return err
		}

		// An amount change can move the allocation between in_use
		// and depleted
		status := nextStatus(allocation)
		if status == allocation.Status {
			return nil
		}

		allocation.Status = status

		return tx.Model(&models.Allocation{}).
			Where("id = ?", allocation.ID).
			Updates(map[string]any{"status": status}).Error
	})
	if err != nil {
		return models.Allocation{}, err
	}

	return allocation, nil
}

// DeletePolicy decides what happens to an allocation that still has
// usage records when it is deleted.
type DeletePolicy string

const (
	// DeletePolicyBlock rejects the deletion. This is the default.
	DeletePolicyBlock DeletePolicy = "block"
	// DeletePolicyClose keeps the allocation and closes it instead.
	DeletePolicyClose DeletePolicy = "close"
	// DeletePolicyCascade deletes the usage records together with the
	// allocation.
	DeletePolicyCascade DeletePolicy = "cascade"
)

// DeleteAllocation deletes an allocation according to the policy.
//
// The returned allocation is only meaningful when closed is true: in that
// case nothing was deleted and the allocation was closed instead.
func DeleteAllocation(ctx context.Context, id uuid.UUID, policy DeletePolicy) (allocation models.Allocation, closed bool, err error) {
	mu := lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	err = inTransaction(ctx, func(tx *gorm.DB) error {
		err := tx.First(&allocation, "id = ?", id).Error
		if err != nil {
			return err
		}

		var usageCount int64
		err = tx.Model(&models.UsageRecord{}).
			Where(models.UsageRecord{AllocationID: allocation.ID}).
			Count(&usageCount).Error
		if err != nil {
			return err
		}

		if usageCount > 0 {
			switch policy {
			case DeletePolicyBlock:
				return models.ErrAllocationHasUsage

			case DeletePolicyClose:
				closed = true
				allocation.Status = models.StatusClosed

				return tx.Model(&models.Allocation{}).
					Where("id = ?", allocation.ID).
					Updates(map[string]any{"status": models.StatusClosed}).Error

			case DeletePolicyCascade:
				err = tx.Where(models.UsageRecord{AllocationID: allocation.ID}).
					Delete(&models.UsageRecord{}).Error
				if err != nil {
					return err
				}
			}
		}

		return tx.Delete(&allocation).Error
	})
	if err != nil {
		return models.Allocation{}, false, err
	}

	if closed {
		publish(ctx, events.Message{
			Type:         events.TypeAllocationClosed,
			AllocationID: allocation.ID,
			UsedTotal:    allocation.UsedTotal,
			Status:       string(allocation.Status),
		})
	}

	return allocation, closed, nil
}

// DeletePolicyFromEnv reads BUDGET_DELETE_POLICY, defaulting to block.
func DeletePolicyFromEnv(value string) DeletePolicy {
	switch DeletePolicy(value) {
	case DeletePolicyClose:
		return DeletePolicyClose
	case DeletePolicyCascade:
		return DeletePolicyCascade
	default:
		return DeletePolicyBlock
	}
}

// nextStatus re-derives the status from the balance. Closed is terminal
// and never derived away from.
func nextStatus(a models.Allocation) models.Status {
	if a.Status == models.StatusClosed {
		return models.StatusClosed
	}

	return models.ResolveStatus(a.Amount, a.UsedTotal)
}

func publish(ctx context.Context, message events.Message) {
	message.Timestamp = time.Now().In(time.UTC)

	err := Publisher.Publish(ctx, message)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("type", message.Type).Msg("publishing ledger event failed")
	}
}
