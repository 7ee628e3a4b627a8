package registry

import (
	"context"
	"strings"

	"golang.org/x/exp/slices"
)

// StaticResolver resolves districts from a fixed in-memory mapping. It
// backs development setups and tests.
type StaticResolver struct {
	districts map[string][]string
}

// NewStaticResolver parses a mapping of the form
//
//	district-1=school-a;school-b,district-2=school-c
//
// Malformed entries are skipped.
func NewStaticResolver(config string) *StaticResolver {
	districts := make(map[string][]string)

	for _, entry := range strings.Split(config, ",") {
		district, schools, ok := strings.Cut(entry, "=")
		if !ok || district == "" {
			continue
		}

		for _, school := range strings.Split(schools, ";") {
			school = strings.TrimSpace(school)
			if school == "" {
				continue
			}

			districts[district] = append(districts[district], school)
		}
	}

	return &StaticResolver{districts: districts}
}

func (r *StaticResolver) SchoolsForDistrict(_ context.Context, districtID string) ([]string, error) {
	schools, ok := r.districts[districtID]
	if !ok {
		return nil, ErrDistrictUnknown
	}

	return schools, nil
}

func (r *StaticResolver) SchoolInDistrict(ctx context.Context, schoolID, districtID string) (bool, error) {
	schools, err := r.SchoolsForDistrict(ctx, districtID)
	if err != nil {
		return false, err
	}

	return slices.Contains(schools, schoolID), nil
}
