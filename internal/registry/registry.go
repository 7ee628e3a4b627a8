// Package registry is the boundary to the school/district registry
// collaborator. The ledger never stores school or district data itself,
// it only resolves which schools a district contains.
package registry

import (
	"context"
	"errors"
	"os"
)

var ErrDistrictUnknown = errors.New("there is no district matching your query")

// Resolver resolves district scopes to school identifiers.
type Resolver interface {
	// SchoolsForDistrict returns the identifiers of all schools of a district.
	SchoolsForDistrict(ctx context.Context, districtID string) ([]string, error)

	// SchoolInDistrict reports whether a school belongs to a district.
	SchoolInDistrict(ctx context.Context, schoolID, districtID string) (bool, error)
}

// FromEnv builds the resolver for the configured registry backend.
//
// REGISTRY_URL selects the HTTP registry service. Without it, the static
// resolver is built from REGISTRY_SCHOOLS, which is also what the tests
// use.
func FromEnv() Resolver {
	if url, ok := os.LookupEnv("REGISTRY_URL"); ok {
		return NewHTTPResolver(url)
	}

	return NewStaticResolver(os.Getenv("REGISTRY_SCHOOLS"))
}
