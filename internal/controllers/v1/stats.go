package v1

import (
	"net/http"

	"github.com/district-ledger/backend/internal/httputil"
	"github.com/district-ledger/backend/internal/models"
	"github.com/gin-gonic/gin"
)

type StatsResponse struct {
	Data  *models.Stats `json:"data"`
	Error *string       `json:"error"`
}

// RegisterStatsRoutes registers the routes for budget statistics.
func RegisterStatsRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsStats)
	r.GET("", GetStats)
}

// OptionsStats returns the allowed HTTP methods.
func OptionsStats(c *gin.Context) {
	httputil.OptionsGet(c)
}

// GetStats returns the aggregate budget statistics over all
// allocations the caller's scope covers.
func GetStats(c *gin.Context) {
	schools, err := visibleSchools(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), StatsResponse{Error: &e})
		return
	}

	stats, err := models.ComputeStats(models.DB, schools)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), StatsResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{Data: &stats})
}
