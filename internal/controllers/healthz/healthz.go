// Package healthz implements the health check endpoint.
package healthz

import (
	"net/http"

	"github.com/district-ledger/backend/internal/httputil"
	"github.com/district-ledger/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the healthz endpoint.
func RegisterRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", Options)
	r.GET("", Get)
}

// Options returns the allowed HTTP methods.
func Options(c *gin.Context) {
	httputil.OptionsGet(c)
}

// Get returns the application health. It is healthy when the database
// is reachable.
func Get(c *gin.Context) {
	sqlDB, err := models.DB.DB()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	err = sqlDB.Ping()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.Status(http.StatusNoContent)
}
