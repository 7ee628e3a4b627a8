package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// HTTPResolver queries the registry service.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (r *HTTPResolver) SchoolsForDistrict(ctx context.Context, districtID string) ([]string, error) {
	url := fmt.Sprintf("%s/districts/%s/schools", r.baseURL, districtID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying registry failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrDistrictUnknown
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Data []struct {
			SchoolID string `json:"school_id"`
		} `json:"data"`
	}

	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		return nil, fmt.Errorf("decoding registry response failed: %w", err)
	}

	schools := make([]string, 0, len(body.Data))
	for _, school := range body.Data {
		schools = append(schools, school.SchoolID)
	}

	return schools, nil
}

func (r *HTTPResolver) SchoolInDistrict(ctx context.Context, schoolID, districtID string) (bool, error) {
	schools, err := r.SchoolsForDistrict(ctx, districtID)
	if err != nil {
		return false, err
	}

	return slices.Contains(schools, schoolID), nil
}
