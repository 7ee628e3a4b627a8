package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UsageRecord is a single expenditure debited against an allocation.
type UsageRecord struct {
	DefaultModel
	Allocation    Allocation      `json:"-"`
	AllocationID  uuid.UUID       `gorm:"index"`
	Amount        decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Purpose       string
	Date          time.Time
	ReceiptNumber string
}

// BeforeSave trims strings and normalizes the expenditure date to UTC.
func (u *UsageRecord) BeforeSave(_ *gorm.DB) error {
	u.Purpose = strings.TrimSpace(u.Purpose)
	u.ReceiptNumber = strings.TrimSpace(u.ReceiptNumber)

	if u.Date.IsZero() {
		u.Date = time.Now().In(time.UTC)
	} else {
		u.Date = u.Date.In(time.UTC)
	}

	return nil
}

func (u *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	_ = u.DefaultModel.BeforeCreate(tx)

	if !u.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if u.Purpose == "" {
		return ErrPurposeRequired
	}

	return u.checkIntegrity(tx)
}

// checkIntegrity verifies that the referenced allocation exists.
func (u *UsageRecord) checkIntegrity(tx *gorm.DB) error {
	return tx.First(&Allocation{}, "id = ?", u.AllocationID).Error
}

// AfterFind reads the expenditure date back in UTC.
func (u *UsageRecord) AfterFind(_ *gorm.DB) error {
	u.Date = u.Date.In(time.UTC)
	return nil
}
