package v1

import (
	"errors"
	"fmt"

	"github.com/district-ledger/backend/internal/auth"
	"github.com/district-ledger/backend/internal/registry"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

// Registry resolves district scopes to schools. It is set by the router
// during startup.
var Registry registry.Resolver

// visibleSchools returns the school identifiers the caller's scope
// covers. School tokens see exactly their school, district tokens see
// every school the registry lists for the district.
func visibleSchools(c *gin.Context) ([]string, error) {
	scope := auth.ScopeFrom(c)

	if scope.IsDistrict() {
		schools, err := Registry.SchoolsForDistrict(c.Request.Context(), scope.DistrictID)
		if err != nil {
			if errors.Is(err, registry.ErrDistrictUnknown) {
				return nil, errForbidden
			}

			return nil, fmt.Errorf("resolving the district scope failed: %w", err)
		}

		return schools, nil
	}

	if scope.SchoolID == "" {
		return nil, errForbidden
	}

	return []string{scope.SchoolID}, nil
}

// checkReadable verifies that the caller's scope covers the school.
func checkReadable(c *gin.Context, schoolID string) error {
	schools, err := visibleSchools(c)
	if err != nil {
		return err
	}

	if !slices.Contains(schools, schoolID) {
		return errForbidden
	}

	return nil
}

// requireDistrict verifies that the caller acts for a district.
// Allocations are managed by the district, not by schools.
func requireDistrict(c *gin.Context) (auth.Scope, error) {
	scope := auth.ScopeFrom(c)
	if !scope.IsDistrict() {
		return auth.Scope{}, errForbidden
	}

	return scope, nil
}

// requireSchool verifies that the caller is the school the allocation
// belongs to. Usage is recorded by the school spending the budget.
func requireSchool(c *gin.Context, schoolID string) error {
	scope := auth.ScopeFrom(c)
	if scope.SchoolID != schoolID {
		return errForbidden
	}

	return nil
}
