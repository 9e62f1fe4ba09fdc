package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRateLimited      = fmt.Errorf("too many attempts")

	// Transport, server and validation failures
	ErrNetwork        = fmt.Errorf("network request failed")
	ErrServerResponse = fmt.Errorf("server returned an error")
	ErrValidation     = fmt.Errorf("validation failed")

	// Entity errors
	ErrMemberNotFound = fmt.Errorf("member not found")
	ErrBookNotFound   = fmt.Errorf("book not found")
	ErrSessionMissing = fmt.Errorf("session not found")

	// Input errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrCancelled       = fmt.Errorf("operation cancelled")
)
