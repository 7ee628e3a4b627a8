package auth

import (
	"context"
	"strings"
)

// StaticVerifier resolves tokens from a fixed in-memory mapping. It backs
// development setups and tests.
type StaticVerifier struct {
	scopes map[string]Scope
}

// NewStaticVerifier parses a mapping of the form
//
//	token-1=district:d-100,token-2=school:s-204
//
// Malformed entries are skipped.
func NewStaticVerifier(config string) *StaticVerifier {
	scopes := make(map[string]Scope)

	for _, entry := range strings.Split(config, ",") {
		token, grant, ok := strings.Cut(entry, "=")
		if !ok || token == "" {
			continue
		}

		kind, id, ok := strings.Cut(grant, ":")
		if !ok || id == "" {
			continue
		}

		switch kind {
		case "district":
			scopes[token] = Scope{DistrictID: id}
		case "school":
			scopes[token] = Scope{SchoolID: id}
		}
	}

	return &StaticVerifier{scopes: scopes}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (Scope, error) {
	scope, ok := v.scopes[token]
	if !ok {
		return Scope{}, ErrTokenInvalid
	}

	return scope, nil
}
