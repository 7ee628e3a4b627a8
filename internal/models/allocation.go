package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// Category classifies what an allocation may be spent on.
type Category string

const (
	CategoryGeneral          Category = "general"
	CategoryInfrastructure   Category = "infrastructure"
	CategoryTechnology       Category = "technology"
	CategorySports           Category = "sports"
	CategoryAcademics        Category = "academics"
	CategoryStaffDevelopment Category = "staff_development"
	CategoryMaintenance      Category = "maintenance"
	CategoryOther            Category = "other"
)

// Categories lists all valid allocation categories.
var Categories = []Category{
	CategoryGeneral,
	CategoryInfrastructure,
	CategoryTechnology,
	CategorySports,
	CategoryAcademics,
	CategoryStaffDevelopment,
	CategoryMaintenance,
	CategoryOther,
}

// Valid reports whether the category is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Allocation represents a budget grant of a fixed amount to a school
// for a fiscal year and category.
//
// UsedTotal and Status are derived values owned by the ledger package.
// They are persisted as a cache and are always recomputable from the
// usage records of the allocation.
type Allocation struct {
	DefaultModel
	SchoolID    string `gorm:"index"`
	FiscalYear  int
	Category    Category
	Amount      decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Description string
	Status      Status
	UsedTotal   decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
}

// BeforeSave trims whitespace and defaults the category.
func (a *Allocation) BeforeSave(_ *gorm.DB) error {
	a.SchoolID = strings.TrimSpace(a.SchoolID)
	a.Description = strings.TrimSpace(a.Description)

	if a.Category == "" {
		a.Category = CategoryGeneral
	}

	return nil
}

func (a *Allocation) BeforeCreate(tx *gorm.DB) error {
	_ = a.DefaultModel.BeforeCreate(tx)

	if a.SchoolID == "" {
		return ErrSchoolIDRequired
	}

	if a.FiscalYear == 0 {
		return ErrFiscalYearRequired
	}

	if !a.Category.Valid() {
		return ErrCategoryInvalid
	}

	if !a.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	a.Status = ResolveStatus(a.Amount, a.UsedTotal)
	return nil
}

// BeforeUpdate verifies metadata updates against the current usage total.
//
// Balance mutations from the ledger package update with a column map and
// skip these checks, the ledger enforces the invariants itself while it
// holds the allocation lock.
func (a *Allocation) BeforeUpdate(tx *gorm.DB) error {
	toSave, ok := tx.Statement.Dest.(Allocation)
	if !ok {
		return nil
	}

	if tx.Statement.Changed("SchoolID") {
		return ErrSchoolIDImmutable
	}

	if tx.Statement.Changed("Category") && !toSave.Category.Valid() {
		return ErrCategoryInvalid
	}

	if tx.Statement.Changed("Amount") {
		if !toSave.Amount.IsPositive() {
			return ErrAmountNotPositive
		}

		if toSave.Amount.LessThan(a.UsedTotal) {
			return ErrAllocationBelowUsage
		}
	}

	return nil
}

// Remaining returns the budget still available on the allocation.
func (a Allocation) Remaining() decimal.Decimal {
	return a.Amount.Sub(a.UsedTotal)
}

// UsageRecords returns all usage records for this allocation, newest
// expenditure first.
func (a Allocation) UsageRecords(db *gorm.DB) ([]UsageRecord, error) {
	var records []UsageRecord

	err := db.
		Where(UsageRecord{AllocationID: a.ID}).
		Order("datetime(usage_records.date) DESC, datetime(usage_records.created_at) DESC").
		Find(&records).Error

	return records, err
}

// UsageTotal sums the usage records of the allocation from the ledger.
//
// The result always equals UsedTotal, it is only queried to verify the
// cached column.
func (a Allocation) UsageTotal(db *gorm.DB) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := db.Model(&UsageRecord{}).
		Where(UsageRecord{AllocationID: a.ID}).
		Select("SUM(amount)").
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return sum.Decimal, nil
}
