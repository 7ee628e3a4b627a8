package models_test

import (
	"github.com/district-ledger/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestComputeStatsEmpty() {
	stats, err := models.ComputeStats(models.DB, []string{"s-204"})
	assert.Nil(suite.T(), err)

	assert.True(suite.T(), stats.TotalAllocated.IsZero())
	assert.True(suite.T(), stats.TotalUsed.IsZero())
	assert.True(suite.T(), stats.RemainingBudget.IsZero())
	assert.True(suite.T(), stats.UsagePercentage.IsZero(), "usage percentage must be zero when nothing is allocated")
	assert.Empty(suite.T(), stats.BudgetsByCategory)
	assert.Empty(suite.T(), stats.BudgetsBySchool)
}

func (suite *TestSuiteStandard) TestComputeStats() {
	first := suite.createTestAllocation(models.Allocation{
		SchoolID: "s-204",
		Category: models.CategoryTechnology,
		Amount:   decimal.NewFromInt(1000),
	})
	second := suite.createTestAllocation(models.Allocation{
		SchoolID: "s-204",
		Category: models.CategorySports,
		Amount:   decimal.NewFromInt(500),
	})
	third := suite.createTestAllocation(models.Allocation{
		SchoolID: "s-205",
		Category: models.CategoryTechnology,
		Amount:   decimal.NewFromInt(2000),
	})

	// Out of scope, must not appear anywhere
	_ = suite.createTestAllocation(models.Allocation{
		SchoolID: "s-999",
		Amount:   decimal.NewFromInt(77777),
	})

	for _, usage := range []struct {
		allocation models.Allocation
		used       int64
	}{
		{first, 400},
		{second, 500},
		{third, 100},
	} {
		err := models.DB.Model(&models.Allocation{}).
			Where("id = ?", usage.allocation.ID).
			Updates(map[string]any{"used_total": decimal.NewFromInt(usage.used)}).Error
		assert.Nil(suite.T(), err)
	}

	stats, err := models.ComputeStats(models.DB, []string{"s-204", "s-205"})
	assert.Nil(suite.T(), err)

	assert.True(suite.T(), stats.TotalAllocated.Equal(decimal.NewFromInt(3500)), "total allocated is %s", stats.TotalAllocated)
	assert.True(suite.T(), stats.TotalUsed.Equal(decimal.NewFromInt(1000)), "total used is %s", stats.TotalUsed)
	assert.True(suite.T(), stats.RemainingBudget.Equal(decimal.NewFromInt(2500)), "remaining budget is %s", stats.RemainingBudget)

	// 1000 of 3500
	expected := decimal.NewFromInt(1000).Div(decimal.NewFromInt(3500)).Mul(decimal.NewFromInt(100))
	assert.True(suite.T(), stats.UsagePercentage.Equal(expected), "usage percentage is %s", stats.UsagePercentage)

	assert.Len(suite.T(), stats.BudgetsByCategory, 2)
	technology := stats.BudgetsByCategory[models.CategoryTechnology]
	assert.True(suite.T(), technology.Allocated.Equal(decimal.NewFromInt(3000)))
	assert.True(suite.T(), technology.Used.Equal(decimal.NewFromInt(500)))
	assert.True(suite.T(), technology.Remaining.Equal(decimal.NewFromInt(2500)))

	assert.Len(suite.T(), stats.BudgetsBySchool, 2)
	school := stats.BudgetsBySchool["s-204"]
	assert.True(suite.T(), school.Allocated.Equal(decimal.NewFromInt(1500)))
	assert.True(suite.T(), school.Used.Equal(decimal.NewFromInt(900)))
	assert.True(suite.T(), school.Remaining.Equal(decimal.NewFromInt(600)))
}
