package v1

import (
	"errors"
	"net/http"

	"github.com/district-ledger/backend/internal/httputil"
	"github.com/district-ledger/backend/internal/ledger"
	"github.com/district-ledger/backend/internal/models"
	ez_uuid "github.com/district-ledger/backend/internal/uuid"
	"github.com/gin-gonic/gin"
)

// RegisterUsageRoutes registers the routes for usage records.
func RegisterUsageRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsUsageList)
		r.POST("", RecordUsage)
	}

	// The GET route binds the allocation ID, the DELETE route the ID of
	// a single usage record
	{
		r.OPTIONS("/:id", OptionsUsageDetail)
		r.GET("/:budgetId", GetUsage)
		r.DELETE("/:id", DeleteUsage)
	}
}

// OptionsUsageList returns the allowed HTTP methods.
func OptionsUsageList(c *gin.Context) {
	httputil.OptionsPost(c)
}

// OptionsUsageDetail returns the allowed HTTP methods.
func OptionsUsageDetail(c *gin.Context) {
	c.Header("allow", "OPTIONS, GET, DELETE")
	c.Status(http.StatusNoContent)
}

// RecordUsage records an expenditure against an allocation.
//
// The request is rejected with 402 when the remaining budget does not
// cover the amount, the response then carries the available and the
// requested amount.
func RecordUsage(c *gin.Context) {
	var editable UsageEditable
	err := httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UsageResponse{Error: &e})
		return
	}

	// The required binding does not fire on an embedded UUID, a missing
	// budget_id binds to the zero UUID
	if editable.BudgetID == ez_uuid.Nil {
		e := errBudgetIDRequired.Error()
		c.JSON(http.StatusBadRequest, UsageResponse{Error: &e})
		return
	}

	var allocation models.Allocation
	err = models.DB.First(&allocation, "id = ?", editable.BudgetID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UsageResponse{Error: &e})
		return
	}

	// Budget is spent by the school it was granted to
	if err := requireSchool(c, allocation.SchoolID); err != nil {
		e := err.Error()
		c.JSON(status(err), UsageResponse{Error: &e})
		return
	}

	record, allocation, err := ledger.RecordUsage(c.Request.Context(), editable.model())
	if err != nil {
		e := err.Error()
		response := UsageResponse{Error: &e}

		var insufficientFunds *models.InsufficientFundsError
		if errors.As(err, &insufficientFunds) {
			response.Available = &insufficientFunds.Available
			response.Requested = &insufficientFunds.Requested
		}

		c.JSON(status(err), response)
		return
	}

	data := newUsage(c, record)
	budget := newAllocation(c, allocation)
	c.JSON(http.StatusCreated, UsageResponse{Data: &data, Budget: &budget})
}

// GetUsage returns the usage records of an allocation, newest
// expenditure first.
func GetUsage(c *gin.Context) {
	var uri URIBudgetID
	if err := c.ShouldBindUri(&uri); err != nil {
		e := httputil.ErrInvalidUUID.Error()
		c.JSON(http.StatusBadRequest, UsageListResponse{Error: &e})
		return
	}

	var allocation models.Allocation
	err := models.DB.First(&allocation, "id = ?", uri.BudgetID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UsageListResponse{Error: &e})
		return
	}

	if err := checkReadable(c, allocation.SchoolID); err != nil {
		e := err.Error()
		c.JSON(status(err), UsageListResponse{Error: &e})
		return
	}

	records, err := allocation.UsageRecords(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UsageListResponse{Error: &e})
		return
	}

	data := make([]Usage, 0, len(records))
	for _, record := range records {
		data = append(data, newUsage(c, record))
	}

	c.JSON(http.StatusOK, UsageListResponse{Data: data})
}

// DeleteUsage removes a usage record, crediting its amount back to the
// allocation. The response carries the updated allocation.
func DeleteUsage(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		e := httputil.ErrInvalidUUID.Error()
		c.JSON(http.StatusBadRequest, UsageResponse{Error: &e})
		return
	}

	var record models.UsageRecord
	err := models.DB.First(&record, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UsageResponse{Error: &e})
		return
	}

	var allocation models.Allocation
	err = models.DB.First(&allocation, "id = ?", record.AllocationID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UsageResponse{Error: &e})
		return
	}

	if err := requireSchool(c, allocation.SchoolID); err != nil {
		e := err.Error()
		c.JSON(status(err), UsageResponse{Error: &e})
		return
	}

	allocation, err = ledger.DeleteUsage(c.Request.Context(), record.ID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UsageResponse{Error: &e})
		return
	}

	budget := newAllocation(c, allocation)
	c.JSON(http.StatusOK, UsageResponse{Budget: &budget})
}
