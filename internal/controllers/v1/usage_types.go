package v1

import (
	"fmt"
	"time"

	"github.com/district-ledger/backend/internal/models"
	ez_uuid "github.com/district-ledger/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UsageEditable are the fields a school sets when recording an
// expenditure.
type UsageEditable struct {
	BudgetID      ez_uuid.UUID    `json:"budget_id" binding:"required" example:"be8ef365-1b08-4dca-a059-7e92ea5b5157"`
	Amount        decimal.Decimal `json:"amount" example:"271.95" minimum:"0.00000001"`
	Purpose       string          `json:"purpose" example:"Projector bulbs for room 204"`
	Date          time.Time       `json:"date" example:"2026-02-17T00:00:00Z"`
	ReceiptNumber string          `json:"receipt_number" example:"R-2026-0117" default:""`
}

func (editable UsageEditable) model() models.UsageRecord {
	return models.UsageRecord{
		AllocationID:  editable.BudgetID.UUID,
		Amount:        editable.Amount,
		Purpose:       editable.Purpose,
		Date:          editable.Date,
		ReceiptNumber: editable.ReceiptNumber,
	}
}

type UsageLinks struct {
	Self   string `json:"self" example:"https://example.com/api/v1/budgets/usage/d1b2f47e-6b4e-4a3f-9c51-1b08be8ef365"`
	Budget string `json:"budget" example:"https://example.com/api/v1/budgets/be8ef365-1b08-4dca-a059-7e92ea5b5157"`
}

// Usage is the API representation of a recorded expenditure.
type Usage struct {
	models.DefaultModel
	UsageEditable
	Links UsageLinks `json:"links"`
}

func newUsage(c *gin.Context, model models.UsageRecord) Usage {
	url := c.GetString(string(models.DBContextURL))

	usage := Usage{
		DefaultModel: model.DefaultModel,
		UsageEditable: UsageEditable{
			BudgetID:      ez_uuid.UUID{UUID: model.AllocationID},
			Amount:        model.Amount,
			Purpose:       model.Purpose,
			Date:          model.Date,
			ReceiptNumber: model.ReceiptNumber,
		},
	}

	usage.Links = UsageLinks{
		Self:   fmt.Sprintf("%s/v1/budgets/usage/%s", url, model.ID),
		Budget: fmt.Sprintf("%s/v1/budgets/%s", url, model.AllocationID),
	}

	return usage
}

// UsageResponse carries the usage record together with the allocation
// it was debited against, so that clients see the updated balance
// without a second request.
//
// When a request is rejected because the remaining budget does not
// cover it, Available and Requested carry the two amounts.
type UsageResponse struct {
	Data      *Usage           `json:"data"`
	Budget    *Allocation      `json:"budget"`
	Error     *string          `json:"error"`
	Available *decimal.Decimal `json:"available,omitempty"`
	Requested *decimal.Decimal `json:"requested,omitempty"`
}

type UsageListResponse struct {
	Data  []Usage `json:"data"`
	Error *string `json:"error"`
}
