// Package handlers: centralized error classification.
//
// Every handler funnels failures through respondError(), which inspects the
// error chain and picks the HTTP status and user-facing message. The
// classification order is fixed:
//
//  1. validator.ValidationErrors  → 400, field-by-field summary
//  2. GORM / database sentinels   → 409 duplicate, 404 missing, 400 constraint
//  3. *services.AppError          → its own status and message, verbatim
//  4. JWT errors                  → 401, expired session vs invalid token
//  5. anything else               → 500, generic message
//
// Outside production (APP_ENV) the envelope additionally carries the raw
// error text and a stack trace to speed up local debugging; production
// responses never include either.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/http/middleware"
	"github.com/tbourn/go-crm-backend/internal/services"
)

// Stable user-facing messages. These are API contract; the frontend matches
// on them in places, so treat changes as breaking.
const (
	msgDuplicate    = "A record with this information already exists."
	msgNotFound     = "The requested record was not found."
	msgBadReference = "Invalid reference to a related record. Please check the provided IDs."
	msgBadData      = "Invalid data provided. Please check your input and try again."
	msgExpiredToken = "Your session has expired. Please log in again."
	msgInvalidToken = "Invalid authentication token. Please log in again."
	msgInternal     = "An unexpected error occurred. Please try again later."
)

// errorDetail controls whether failure envelopes carry the raw error text and
// a stack trace. Defaults on to match APP_ENV=development; router wiring
// turns it off for production via SetErrorDetail.
var errorDetail = true

// SetErrorDetail toggles diagnostic passthrough in failure envelopes. Called
// once at wiring time with !cfg.IsProduction().
func SetErrorDetail(enabled bool) { errorDetail = enabled }

// respondError classifies err, logs it with request context, and writes the
// failure envelope. It aborts the Gin chain.
func respondError(c *gin.Context, err error) {
	status, message := classify(err)

	lg := middleware.LoggerFrom(c)
	lg.Error().
		Err(err).
		Int("status", status).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("request failed")

	resp := ErrorResponse{Success: false, Message: message}
	if errorDetail {
		resp.Error = err.Error()
		resp.Stack = string(debug.Stack())
	}
	c.AbortWithStatusJSON(status, resp)
}

// RespondError is the exported variant of respondError for middleware that
// lives outside this package (the auth gate).
func RespondError(c *gin.Context, err error) { respondError(c, err) }

// classify maps an error chain to (status, user message).
func classify(err error) (int, string) {
	// 1. Binding/validation failures carry per-field detail.
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, validationMessage(verrs)
	}

	// 2. Database constraint sentinels (TranslateError).
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, msgDuplicate
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return http.StatusBadRequest, msgBadReference
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidValue):
		return http.StatusBadRequest, msgBadData
	}

	// 3. Deliberate application errors win their own status verbatim.
	if ae, ok := services.AsAppError(err); ok {
		return ae.Status, ae.UserMessage
	}

	// 4. Token failures: distinguish a stale session from a bad token.
	if errors.Is(err, jwt.ErrTokenExpired) {
		return http.StatusUnauthorized, msgExpiredToken
	}
	if isJWTError(err) {
		return http.StatusUnauthorized, msgInvalidToken
	}

	// 5. Everything else is an opaque server failure.
	return http.StatusInternalServerError, msgInternal
}

// isJWTError reports whether err is any golang-jwt sentinel other than expiry.
func isJWTError(err error) bool {
	for _, sentinel := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenInvalidClaims,
		jwt.ErrTokenInvalidSubject,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// validationMessage flattens validator errors into a single line:
// "Validation failed: email: must be a valid email address, name: is required".
func validationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fieldName(fe), tagMessage(fe)))
	}
	return "Validation failed: " + strings.Join(parts, ", ")
}

// fieldName lowercases the first rune of the struct field so messages use the
// JSON casing clients sent ("Email" → "email").
func fieldName(fe validator.FieldError) string {
	f := fe.Field()
	if f == "" {
		return "field"
	}
	return strings.ToLower(f[:1]) + f[1:]
}

// tagMessage renders a human message for the common binding tags.
func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
