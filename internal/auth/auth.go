// Package auth is the boundary to the auth/session collaborator.
//
// Tokens are verified by the collaborator, not here: the package only
// extracts the bearer token, asks a Verifier for the caller's scope and
// makes that scope available to handlers. Scope enforcement against
// concrete allocations stays with the handlers.
package auth

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	ErrNoToken      = errors.New("a bearer token is required for this endpoint")
	ErrTokenInvalid = errors.New("the bearer token is not valid")
)

// Scope is what a verified token entitles the caller to: a single school,
// or all schools of a district.
type Scope struct {
	SchoolID   string `json:"school_id,omitempty"`
	DistrictID string `json:"district_id,omitempty"`
}

// IsDistrict reports whether the caller acts for a whole district.
func (s Scope) IsDistrict() bool {
	return s.DistrictID != ""
}

// Verifier resolves a bearer token to the caller's scope.
type Verifier interface {
	Verify(ctx context.Context, token string) (Scope, error)
}

const contextScope = "caller-scope"

// Middleware verifies the bearer token of every request and stores the
// caller's scope in the request context. OPTIONS requests pass through
// unauthenticated so that endpoint discovery and CORS preflights work.
func Middleware(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrNoToken.Error()})
			return
		}

		scope, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrTokenInvalid.Error()})
			return
		}

		c.Set(contextScope, scope)
		c.Next()
	}
}

// ScopeFrom returns the caller scope stored by the middleware.
func ScopeFrom(c *gin.Context) Scope {
	scope, _ := c.Get(contextScope)

	s, ok := scope.(Scope)
	if !ok {
		return Scope{}
	}

	return s
}

// VerifierFromEnv builds the verifier for the configured auth backend.
//
// AUTH_URL selects token introspection against the auth service. Without
// it, the static verifier is built from AUTH_STATIC_TOKENS, which is also
// what the tests use.
func VerifierFromEnv() Verifier {
	if url, ok := os.LookupEnv("AUTH_URL"); ok {
		return NewHTTPVerifier(url)
	}

	return NewStaticVerifier(os.Getenv("AUTH_STATIC_TOKENS"))
}
