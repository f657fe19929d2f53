// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the bearer-token authentication gate. Every route
// behind it requires a valid "Authorization: Bearer <token>" header; the
// token's subject becomes the request's user identity (context key "userID"),
// which downstream middleware and handlers rely on for scoping, idempotency,
// and rate-limit keying.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/services"
)

// ErrorResponder writes a classified failure envelope for err and aborts the
// request. Injected from the handlers package to avoid an import cycle.
type ErrorResponder func(c *gin.Context, err error)

// RequireAuth returns a Gin middleware enforcing bearer authentication.
//
// Behavior:
//   - Missing or non-Bearer Authorization header → 401 via respond.
//   - Expired, malformed, or forged tokens → 401 via respond (the classifier
//     distinguishes expiry from other token failures).
//   - Valid token → "userID" set in the Gin context, chain continues.
func RequireAuth(secret string, respond ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respond(c, services.ErrMissingToken)
			return
		}

		uid, err := services.ParseToken(token, secret)
		if err != nil {
			respond(c, err)
			return
		}

		c.Set("userID", uid)
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header, tolerating
// case variance in the scheme. Returns "" when absent or not a bearer scheme.
func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
