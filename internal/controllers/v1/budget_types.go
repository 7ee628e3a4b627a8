package v1

import (
	"fmt"

	"github.com/district-ledger/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AllocationEditable are the fields the district sets when creating an
// allocation.
type AllocationEditable struct {
	SchoolID    string          `json:"school_id" binding:"required" example:"s-204"`
	FiscalYear  int             `json:"fiscal_year" binding:"required" example:"2026"`
	Category    models.Category `json:"category" example:"technology" default:"general"`
	Amount      decimal.Decimal `json:"amount" example:"15000" minimum:"0.00000001"`
	Description string          `json:"description" example:"Chromebook refresh for the middle school" default:""`
}

func (editable AllocationEditable) model() models.Allocation {
	return models.Allocation{
		SchoolID:    editable.SchoolID,
		FiscalYear:  editable.FiscalYear,
		Category:    editable.Category,
		Amount:      editable.Amount,
		Description: editable.Description,
	}
}

// AllocationUpdate are the fields the district may change afterwards.
// The school an allocation was granted to is immutable.
type AllocationUpdate struct {
	FiscalYear  int             `json:"fiscal_year" example:"2026"`
	Category    models.Category `json:"category" example:"technology"`
	Amount      decimal.Decimal `json:"amount" example:"15000" minimum:"0.00000001"`
	Description string          `json:"description" example:"Chromebook refresh for the middle school"`
}

func (update AllocationUpdate) model() models.Allocation {
	return models.Allocation{
		FiscalYear:  update.FiscalYear,
		Category:    update.Category,
		Amount:      update.Amount,
		Description: update.Description,
	}
}

type AllocationLinks struct {
	Self  string `json:"self" example:"https://example.com/api/v1/budgets/be8ef365-1b08-4dca-a059-7e92ea5b5157"`
	Usage string `json:"usage" example:"https://example.com/api/v1/budgets/usage/be8ef365-1b08-4dca-a059-7e92ea5b5157"`
	Close string `json:"close" example:"https://example.com/api/v1/budgets/be8ef365-1b08-4dca-a059-7e92ea5b5157/close"`
}

// Allocation is the API representation of a budget allocation.
type Allocation struct {
	models.DefaultModel
	AllocationEditable
	Status    models.Status   `json:"status" example:"in_use"`
	UsedTotal decimal.Decimal `json:"used_total" example:"4200.5"`
	Remaining decimal.Decimal `json:"remaining" example:"10799.5"`
	Links     AllocationLinks `json:"links"`
}

func newAllocation(c *gin.Context, model models.Allocation) Allocation {
	url := c.GetString(string(models.DBContextURL))

	allocation := Allocation{
		DefaultModel: model.DefaultModel,
		AllocationEditable: AllocationEditable{
			SchoolID:    model.SchoolID,
			FiscalYear:  model.FiscalYear,
			Category:    model.Category,
			Amount:      model.Amount,
			Description: model.Description,
		},
		Status:    model.Status,
		UsedTotal: model.UsedTotal,
		Remaining: model.Remaining(),
	}

	allocation.Links = AllocationLinks{
		Self:  fmt.Sprintf("%s/v1/budgets/%s", url, model.ID),
		Usage: fmt.Sprintf("%s/v1/budgets/usage/%s", url, model.ID),
		Close: fmt.Sprintf("%s/v1/budgets/%s/close", url, model.ID),
	}

	return allocation
}

type AllocationResponse struct {
	Data  *Allocation `json:"data"`
	Error *string     `json:"error"`
}

type AllocationListResponse struct {
	Data       []Allocation `json:"data"`
	Error      *string      `json:"error"`
	Pagination *Pagination  `json:"pagination"`
}

type AllocationQueryFilter struct {
	SchoolID   string          `form:"school" filterField:"false"`  // Only allocations of this school
	FiscalYear int             `form:"fiscalYear"`                  // Fiscal year the allocation belongs to
	Category   models.Category `form:"category"`                    // Category the budget was granted for
	Status     models.Status   `form:"status"`                      // Derived lifecycle status
	Offset     uint            `form:"offset" filterField:"false"`  // The offset of the first allocation returned. Defaults to 0.
	Limit      int             `form:"limit" filterField:"false"`   // Maximum number of allocations to return. Defaults to 50.
}

func (f AllocationQueryFilter) model() models.Allocation {
	return models.Allocation{
		FiscalYear: f.FiscalYear,
		Category:   f.Category,
		Status:     f.Status,
	}
}
