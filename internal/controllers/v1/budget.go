package v1

import (
	"net/http"
	"os"

	"github.com/district-ledger/backend/internal/httputil"
	"github.com/district-ledger/backend/internal/ledger"
	"github.com/district-ledger/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterAllocationRoutes registers the routes for allocations.
func RegisterAllocationRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsAllocationList)
		r.GET("", GetAllocations)
		r.POST("", CreateAllocation)
	}

	// Allocation with ID
	{
		r.OPTIONS("/:id", OptionsAllocationDetail)
		r.GET("/:id", GetAllocation)
		r.PUT("/:id", UpdateAllocation)
		r.DELETE("/:id", DeleteAllocation)

		r.OPTIONS("/:id/close", OptionsAllocationClose)
		r.POST("/:id/close", CloseAllocation)
	}
}

// OptionsAllocationList returns the allowed HTTP methods.
func OptionsAllocationList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// OptionsAllocationDetail returns the allowed HTTP methods.
func OptionsAllocationDetail(c *gin.Context) {
	httputil.OptionsGetPutDelete(c)
}

// OptionsAllocationClose returns the allowed HTTP methods.
func OptionsAllocationClose(c *gin.Context) {
	httputil.OptionsPost(c)
}

// CreateAllocation creates a new allocation for a school. Only district
// callers may allocate budget, and only to schools of their district.
func CreateAllocation(c *gin.Context) {
	scope, err := requireDistrict(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	var editable AllocationEditable
	err = httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	ok, err := Registry.SchoolInDistrict(c.Request.Context(), editable.SchoolID, scope.DistrictID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	if !ok {
		e := errForbidden.Error()
		c.JSON(http.StatusForbidden, AllocationResponse{Error: &e})
		return
	}

	allocation := editable.model()
	err = models.DB.Create(&allocation).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	data := newAllocation(c, allocation)
	c.JSON(http.StatusCreated, AllocationResponse{Data: &data})
}

// GetAllocations returns the allocations the caller's scope covers,
// newest first.
func GetAllocations(c *gin.Context) {
	var filter AllocationQueryFilter
	if err := c.ShouldBind(&filter); err != nil {
		e := httputil.ErrInvalidQueryString.Error()
		c.JSON(http.StatusBadRequest, AllocationListResponse{Error: &e})
		return
	}

	schools, err := visibleSchools(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationListResponse{Error: &e})
		return
	}

	// Narrowing to one school is only allowed within the scope
	if filter.SchoolID != "" {
		if err := checkReadable(c, filter.SchoolID); err != nil {
			e := err.Error()
			c.JSON(status(err), AllocationListResponse{Error: &e})
			return
		}

		schools = []string{filter.SchoolID}
	}

	// Get the fields set in the filter
	queryFields, _ := httputil.GetURLFields(c.Request.URL, filter)

	filterModel := filter.model()
	query := models.DB.
		Order("datetime(created_at) DESC").
		Where("school_id IN ?", schools).
		Where(&filterModel, queryFields...)

	var count int64
	err = query.Model(&models.Allocation{}).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationListResponse{Error: &e})
		return
	}

	// Default to 50 allocations and set the offset
	limit := 50
	if filter.Limit != 0 {
		limit = filter.Limit
	}
	query = query.Limit(limit).Offset(int(filter.Offset))

	var allocations []models.Allocation
	err = query.Find(&allocations).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationListResponse{Error: &e})
		return
	}

	data := make([]Allocation, 0, len(allocations))
	for _, allocation := range allocations {
		data = append(data, newAllocation(c, allocation))
	}

	c.JSON(http.StatusOK, AllocationListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// GetAllocation returns a single allocation.
func GetAllocation(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		e := httputil.ErrInvalidUUID.Error()
		c.JSON(http.StatusBadRequest, AllocationResponse{Error: &e})
		return
	}

	var allocation models.Allocation
	err := models.DB.First(&allocation, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	if err := checkReadable(c, allocation.SchoolID); err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	data := newAllocation(c, allocation)
	c.JSON(http.StatusOK, AllocationResponse{Data: &data})
}

// UpdateAllocation updates an allocation. Only the fields that are set
// in the request body are written, the amount can never be lowered
// below the usage already recorded.
func UpdateAllocation(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		e := httputil.ErrInvalidUUID.Error()
		c.JSON(http.StatusBadRequest, AllocationResponse{Error: &e})
		return
	}

	if _, err := requireDistrict(c); err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	var allocation models.Allocation
	err := models.DB.First(&allocation, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	if err := checkReadable(c, allocation.SchoolID); err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	fields, err := httputil.GetBodyFields(c, AllocationUpdate{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	var update AllocationUpdate
	err = httputil.BindData(c, &update)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	allocation, err = ledger.UpdateAllocation(c.Request.Context(), allocation.ID, fields, update.model())
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	data := newAllocation(c, allocation)
	c.JSON(http.StatusOK, AllocationResponse{Data: &data})
}

// DeleteAllocation deletes an allocation.
//
// What happens to an allocation that already has usage records depends
// on BUDGET_DELETE_POLICY: "block" rejects the deletion, "close" keeps
// the allocation and closes it, "cascade" deletes the usage records
// with it. A closed-instead-of-deleted allocation is returned with
// status 200.
func DeleteAllocation(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		e := httputil.ErrInvalidUUID.Error()
		c.JSON(http.StatusBadRequest, AllocationResponse{Error: &e})
		return
	}

	if _, err := requireDistrict(c); err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	var allocation models.Allocation
	err := models.DB.First(&allocation, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	if err := checkReadable(c, allocation.SchoolID); err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	policy := ledger.DeletePolicyFromEnv(os.Getenv("BUDGET_DELETE_POLICY"))

	allocation, closed, err := ledger.DeleteAllocation(c.Request.Context(), allocation.ID, policy)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	if closed {
		data := newAllocation(c, allocation)
		c.JSON(http.StatusOK, AllocationResponse{Data: &data})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// CloseAllocation closes an allocation so that no further usage can be
// recorded against it. Closing is terminal and idempotent.
func CloseAllocation(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		e := httputil.ErrInvalidUUID.Error()
		c.JSON(http.StatusBadRequest, AllocationResponse{Error: &e})
		return
	}

	if _, err := requireDistrict(c); err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	var allocation models.Allocation
	err := models.DB.First(&allocation, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	if err := checkReadable(c, allocation.SchoolID); err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	allocation, err = ledger.Close(c.Request.Context(), allocation.ID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	data := newAllocation(c, allocation)
	c.JSON(http.StatusOK, AllocationResponse{Data: &data})
}
