package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rollup is the aggregate of a group of allocations.
type Rollup struct {
	Allocated decimal.Decimal `json:"allocated" example:"15000"`
	Used      decimal.Decimal `json:"used" example:"4200.5"`
	Remaining decimal.Decimal `json:"remaining" example:"10799.5"`
}

// Stats is the aggregate view over all allocations in a scope.
type Stats struct {
	TotalAllocated    decimal.Decimal     `json:"totalAllocated" example:"50000"`
	TotalUsed         decimal.Decimal     `json:"totalUsed" example:"17500"`
	RemainingBudget   decimal.Decimal     `json:"remainingBudget" example:"32500"`
	UsagePercentage   decimal.Decimal     `json:"usagePercentage" example:"35"`
	BudgetsByCategory map[Category]Rollup `json:"budgetsByCategory"`
	BudgetsBySchool   map[string]Rollup   `json:"budgetsBySchool"`
}

// ComputeStats aggregates the allocations of the given schools.
//
// The rollups are read in a single query so that they reflect one
// consistent snapshot of the allocation store.
func ComputeStats(db *gorm.DB, schoolIDs []string) (Stats, error) {
	var rows []struct {
		SchoolID  string
		Category  Category
		Allocated decimal.Decimal
		Used      decimal.Decimal
	}

	err := db.Model(&Allocation{}).
		Select("school_id, category, SUM(amount) AS allocated, SUM(used_total) AS used").
		Where("school_id IN ?", schoolIDs).
		Group("school_id, category").
		Scan(&rows).Error
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalAllocated:    decimal.Zero,
		TotalUsed:         decimal.Zero,
		RemainingBudget:   decimal.Zero,
		UsagePercentage:   decimal.Zero,
		BudgetsByCategory: make(map[Category]Rollup),
		BudgetsBySchool:   make(map[string]Rollup),
	}

	for _, row := range rows {
		stats.TotalAllocated = stats.TotalAllocated.Add(row.Allocated)
		stats.TotalUsed = stats.TotalUsed.Add(row.Used)

		category := stats.BudgetsByCategory[row.Category]
		category.Allocated = category.Allocated.Add(row.Allocated)
		category.Used = category.Used.Add(row.Used)
		category.Remaining = category.Allocated.Sub(category.Used)
		stats.BudgetsByCategory[row.Category] = category

		school := stats.BudgetsBySchool[row.SchoolID]
		school.Allocated = school.Allocated.Add(row.Allocated)
		school.Used = school.Used.Add(row.Used)
		school.Remaining = school.Allocated.Sub(school.Used)
		stats.BudgetsBySchool[row.SchoolID] = school
	}

	stats.RemainingBudget = stats.TotalAllocated.Sub(stats.TotalUsed)
	if stats.TotalAllocated.IsPositive() {
		stats.UsagePercentage = stats.TotalUsed.
			Div(stats.TotalAllocated).
			Mul(decimal.NewFromInt(100))
	}

	return stats, nil
}
