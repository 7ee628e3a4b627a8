package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPVerifier introspects tokens against the auth service.
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPVerifier(baseURL string) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (Scope, error) {
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return Scope{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/introspect", bytes.NewReader(payload))
	if err != nil {
		return Scope{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Scope{}, fmt.Errorf("querying auth service failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Scope{}, ErrTokenInvalid
	}

	if resp.StatusCode != http.StatusOK {
		return Scope{}, fmt.Errorf("auth service returned HTTP %d", resp.StatusCode)
	}

	var scope Scope
	err = json.NewDecoder(resp.Body).Decode(&scope)
	if err != nil {
		return Scope{}, fmt.Errorf("decoding auth response failed: %w", err)
	}

	if scope.SchoolID == "" && scope.DistrictID == "" {
		return Scope{}, ErrTokenInvalid
	}

	return scope, nil
}
