package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the session credential has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the session credential is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidAccessCode indicates the presented access code is not recognised
	ErrInvalidAccessCode = errors.New("invalid access code")

	// ErrNotConnected indicates the token has no live session
	ErrNotConnected = errors.New("not connected")

	// ErrBackendUnavailable indicates a generation, embedding or search backend
	// could not be reached in time. Callers degrade instead of failing.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrPartialSearchFailure indicates one or more collections failed during a
	// fan-out search. It is logged, never returned to clients.
	ErrPartialSearchFailure = errors.New("partial search failure")

	// ErrUnknownCollection indicates a collection name outside the catalog
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidProvider indicates an unsupported AI provider
	ErrInvalidProvider = errors.New("invalid provider")
)
