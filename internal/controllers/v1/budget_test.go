package v1_test

import (
	"fmt"
	"net/http"
	"os"
	"testing"

	v1 "github.com/district-ledger/backend/internal/controllers/v1"
	"github.com/district-ledger/backend/internal/models"
	"github.com/district-ledger/backend/test"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestAllocationCreate() {
	recorder := test.Request(suite.T(), "POST", "/v1/budgets", map[string]any{
		"school_id":   "s-204",
		"fiscal_year": 2026,
		"category":    "technology",
		"amount":      15000,
		"description": "Chromebook refresh for the middle school",
	}, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusCreated)

	allocation := suite.decodeAllocation(&recorder)
	assert.Equal(suite.T(), "s-204", allocation.SchoolID)
	assert.Equal(suite.T(), models.CategoryTechnology, allocation.Category)
	assert.Equal(suite.T(), models.StatusAllocated, allocation.Status)
	assert.True(suite.T(), allocation.Remaining.Equal(number(15000)))
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/api/v1/budgets/%s", allocation.ID), allocation.Links.Self)
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/api/v1/budgets/usage/%s", allocation.ID), allocation.Links.Usage)
}

func (suite *TestSuiteStandard) TestAllocationCreateInvalid() {
	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"broken body", `{ "amount": "many" }`, http.StatusBadRequest},
		{"empty body", "", http.StatusBadRequest},
		{"no school", map[string]any{"fiscal_year": 2026, "amount": 100}, http.StatusBadRequest},
		{"zero amount", map[string]any{"school_id": "s-204", "fiscal_year": 2026, "amount": 0}, http.StatusBadRequest},
		{"unknown category", map[string]any{"school_id": "s-204", "fiscal_year": 2026, "amount": 100, "category": "snacks"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, "POST", "/v1/budgets", tt.body, asDistrict())
			test.AssertHTTPStatus(t, &recorder, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestAllocationCreateScope() {
	// Schools cannot allocate budget
	recorder := test.Request(suite.T(), "POST", "/v1/budgets", map[string]any{
		"school_id": "s-204", "fiscal_year": 2026, "amount": 100,
	}, asSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)

	// The district cannot allocate to schools outside of it
	recorder = test.Request(suite.T(), "POST", "/v1/budgets", map[string]any{
		"school_id": "s-999", "fiscal_year": 2026, "amount": 100,
	}, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestAllocationCreateUnauthenticated() {
	recorder := test.Request(suite.T(), "POST", "/v1/budgets", map[string]any{
		"school_id": "s-204", "fiscal_year": 2026, "amount": 100,
	})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)
}

func (suite *TestSuiteStandard) TestAllocationGet() {
	allocation := suite.createTestAllocation(map[string]any{})

	url := fmt.Sprintf("/v1/budgets/%s", allocation.ID)

	// The district and the school itself can read it
	recorder := test.Request(suite.T(), "GET", url, nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	recorder = test.Request(suite.T(), "GET", url, nil, asSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	// Another school cannot
	recorder = test.Request(suite.T(), "GET", url, nil, asOtherSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestAllocationGetNotFound() {
	recorder := test.Request(suite.T(), "GET", "/v1/budgets/be8ef365-1b08-4dca-a059-7e92ea5b5157", nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)

	recorder = test.Request(suite.T(), "GET", "/v1/budgets/definitely-not-a-uuid", nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestAllocationList() {
	_ = suite.createTestAllocation(map[string]any{"school_id": "s-204", "category": "technology"})
	_ = suite.createTestAllocation(map[string]any{"school_id": "s-204", "category": "sports", "fiscal_year": 2025})
	_ = suite.createTestAllocation(map[string]any{"school_id": "s-205"})

	var response v1.AllocationListResponse

	// The district sees all three
	recorder := test.Request(suite.T(), "GET", "/v1/budgets", nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Len(suite.T(), response.Data, 3)
	assert.Equal(suite.T(), int64(3), response.Pagination.Total)

	// The school only its own
	recorder = test.Request(suite.T(), "GET", "/v1/budgets", nil, asSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Len(suite.T(), response.Data, 2)

	// Filters narrow the list
	recorder = test.Request(suite.T(), "GET", "/v1/budgets?fiscalYear=2025", nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Len(suite.T(), response.Data, 1)
	assert.Equal(suite.T(), models.CategorySports, response.Data[0].Category)

	recorder = test.Request(suite.T(), "GET", "/v1/budgets?school=s-205", nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Len(suite.T(), response.Data, 1)

	// A school cannot filter for another school
	recorder = test.Request(suite.T(), "GET", "/v1/budgets?school=s-205", nil, asSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)

	// Pagination
	recorder = test.Request(suite.T(), "GET", "/v1/budgets?limit=2&offset=2", nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Len(suite.T(), response.Data, 1)
	assert.Equal(suite.T(), int64(3), response.Pagination.Total)
	assert.Equal(suite.T(), 2, response.Pagination.Limit)
}

func (suite *TestSuiteStandard) TestAllocationUpdate() {
	allocation := suite.createTestAllocation(map[string]any{"amount": 1000})

	url := fmt.Sprintf("/v1/budgets/%s", allocation.ID)

	// Only submitted fields are written
	recorder := test.Request(suite.T(), "PUT", url, map[string]any{
		"description": "Raised after the board meeting",
		"amount":      2000,
	}, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	updated := suite.decodeAllocation(&recorder)
	assert.Equal(suite.T(), "Raised after the board meeting", updated.Description)
	assert.True(suite.T(), updated.Amount.Equal(number(2000)))
	assert.Equal(suite.T(), allocation.FiscalYear, updated.FiscalYear)

	// Schools cannot update allocations
	recorder = test.Request(suite.T(), "PUT", url, map[string]any{"amount": 3000}, asSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestAllocationUpdateBelowUsage() {
	allocation := suite.createTestAllocation(map[string]any{"amount": 1000})
	_, _ = suite.createTestUsage(allocation, 400)

	recorder := test.Request(suite.T(), "PUT", fmt.Sprintf("/v1/budgets/%s", allocation.ID), map[string]any{
		"amount": 300,
	}, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestAllocationDelete() {
	allocation := suite.createTestAllocation(map[string]any{})

	// Schools cannot delete allocations
	recorder := test.Request(suite.T(), "DELETE", fmt.Sprintf("/v1/budgets/%s", allocation.ID), nil, asSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)

	recorder = test.Request(suite.T(), "DELETE", fmt.Sprintf("/v1/budgets/%s", allocation.ID), nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNoContent)

	recorder = test.Request(suite.T(), "GET", fmt.Sprintf("/v1/budgets/%s", allocation.ID), nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestAllocationDeleteBlocked() {
	allocation := suite.createTestAllocation(map[string]any{})
	_, _ = suite.createTestUsage(allocation, 100)

	recorder := test.Request(suite.T(), "DELETE", fmt.Sprintf("/v1/budgets/%s", allocation.ID), nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusConflict)
}

func (suite *TestSuiteStandard) TestAllocationDeleteClosePolicy() {
	os.Setenv("BUDGET_DELETE_POLICY", "close")
	defer os.Unsetenv("BUDGET_DELETE_POLICY")

	allocation := suite.createTestAllocation(map[string]any{})
	_, _ = suite.createTestUsage(allocation, 100)

	recorder := test.Request(suite.T(), "DELETE", fmt.Sprintf("/v1/budgets/%s", allocation.ID), nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	updated := suite.decodeAllocation(&recorder)
	assert.Equal(suite.T(), models.StatusClosed, updated.Status)
}

func (suite *TestSuiteStandard) TestAllocationClose() {
	allocation := suite.createTestAllocation(map[string]any{})
	_, _ = suite.createTestUsage(allocation, 100)

	url := fmt.Sprintf("/v1/budgets/%s/close", allocation.ID)

	// Schools cannot close allocations
	recorder := test.Request(suite.T(), "POST", url, nil, asSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)

	recorder = test.Request(suite.T(), "POST", url, nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	closed := suite.decodeAllocation(&recorder)
	assert.Equal(suite.T(), models.StatusClosed, closed.Status)

	// Closing again changes nothing
	recorder = test.Request(suite.T(), "POST", url, nil, asDistrict())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	// No new usage fits a closed allocation
	recorder = test.Request(suite.T(), "POST", "/v1/budgets/usage", map[string]any{
		"budget_id": allocation.ID,
		"amount":    1,
		"purpose":   "Bus fuel",
	}, asSchool())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusConflict)
}
