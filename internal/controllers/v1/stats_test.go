package v1_test

import (
	"net/http"

	v1 "github.com/district-ledger/backend/internal/controllers/v1"
	"github.com/district-ledger/backend/internal/models"
	"github.com/district-ledger/backend/test"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestStatsEmpty() {
	recorder := test.Request(suite.T(), "GET", "/v1/budget-stats", nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.StatsResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	assert.True(suite.T(), response.Data.TotalAllocated.IsZero())
	assert.True(suite.T(), response.Data.UsagePercentage.IsZero())
}

func (suite *TestSuiteStandard) TestStats() {
	first := suite.createTestAllocation(map[string]any{"school_id": "s-204", "category": "technology", "amount": 1000})
	_ = suite.createTestAllocation(map[string]any{"school_id": "s-205", "category": "sports", "amount": 500})

	_, _ = suite.createTestUsage(first, 400)

	// District stats cover both schools
	recorder := test.Request(suite.T(), "GET", "/v1/budget-stats", nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.StatsResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	assert.True(suite.T(), response.Data.TotalAllocated.Equal(number(1500)))
	assert.True(suite.T(), response.Data.TotalUsed.Equal(number(400)))
	assert.True(suite.T(), response.Data.RemainingBudget.Equal(number(1100)))
	assert.Len(suite.T(), response.Data.BudgetsByCategory, 2)
	assert.Len(suite.T(), response.Data.BudgetsBySchool, 2)

	// School stats only cover the school itself. Decoded into a fresh
	// response since json.Unmarshal merges into existing maps.
	recorder = test.Request(suite.T(), "GET", "/v1/budget-stats", nil, asSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var schoolResponse v1.StatsResponse
	test.DecodeResponse(suite.T(), &recorder, &schoolResponse)

	assert.True(suite.T(), schoolResponse.Data.TotalAllocated.Equal(number(1000)))
	assert.Len(suite.T(), schoolResponse.Data.BudgetsBySchool, 1)

	technology := schoolResponse.Data.BudgetsByCategory[models.CategoryTechnology]
	assert.True(suite.T(), technology.Used.Equal(number(400)))
	assert.True(suite.T(), technology.Remaining.Equal(number(600)))
}
