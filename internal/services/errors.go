// Package services defines the business logic for auth, customers, deals,
// interactions, and tasks. This file centralizes the service-level error type
// and common error values so they can be consistently returned by service
// methods and translated by the HTTP error classifier.
//
// AppError is the "explicitly raised application error" of the error
// taxonomy: it carries its own HTTP status and a user-facing message, and the
// classifier uses both verbatim. All other failures (validation, constraint
// violations, token errors) are classified by type at the handler layer.
package services

import "errors"

// AppError is an application failure raised deliberately by a service with a
// predetermined HTTP status and a message safe to show to users. The internal
// message (Error()) may carry more detail than the user-facing one.
type AppError struct {
	// Status is the HTTP status code the classifier must emit.
	Status int
	// Message is the internal diagnostic message (logged, never shown in
	// production responses).
	Message string
	// UserMessage is the text placed in the response envelope.
	UserMessage string
}

// Error implements the error interface with the internal message.
func (e *AppError) Error() string { return e.Message }

// NewAppError builds an AppError. An empty userMessage falls back to the
// internal message, mirroring how handlers raise one-line failures.
func NewAppError(message string, status int, userMessage string) *AppError {
	if userMessage == "" {
		userMessage = message
	}
	return &AppError{Status: status, Message: message, UserMessage: userMessage}
}

// AsAppError unwraps err into an *AppError when one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Well-known application errors. The user-facing text is part of the API
// contract with the frontend and must not drift.
var (
	// ErrEmailExists is returned when registration hits an already-used email.
	ErrEmailExists = NewAppError("user already exists", 409,
		"An account with this email already exists. Please use a different email or try logging in.")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the two cases are indistinguishable to a caller.
	ErrInvalidCredentials = NewAppError("invalid credentials", 401,
		"Invalid email or password. Please check your credentials and try again.")

	// ErrCustomerNotFound is returned when a customer lookup misses.
	ErrCustomerNotFound = NewAppError("customer not found", 404,
		"The requested customer could not be found. It may have been deleted or you may not have permission to view it.")

	// ErrMissingToken is returned by the auth gate when no bearer token is
	// presented at all.
	ErrMissingToken = NewAppError("missing bearer token", 401,
		"Access token required. Please log in.")
)
