package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrNoCurrentTrack     = fmt.Errorf("no track currently playing")
	ErrPermissionDenied   = fmt.Errorf("permission denied")
	ErrDuplicate          = fmt.Errorf("resource already exists")

	// Hotkey and helper errors
	ErrHelperUnavailable = fmt.Errorf("helper unavailable")
	ErrInvalidCombo      = fmt.Errorf("invalid key combination")
	ErrComboNotFound     = fmt.Errorf("combo not registered")

	// Mutation outcomes
	ErrAllPlaylistsFailed = fmt.Errorf("all playlist additions failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
