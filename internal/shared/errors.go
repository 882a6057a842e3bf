package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrForbidden        = fmt.Errorf("not allowed for this role")
	ErrLocalSession     = fmt.Errorf("local demo session cannot authenticate with the backend")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrVideoNotFound      = fmt.Errorf("video not found")
	ErrCourseNotFound     = fmt.Errorf("course not found")

	// Storage errors
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Desktop integration errors
	ErrBrowserUnavailable = fmt.Errorf("failed to open browser")
)
