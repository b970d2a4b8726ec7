package access

import "errors"

var (
	// ErrAuthRequired is returned when a protected view is requested without a session
	ErrAuthRequired = errors.New("authentication required")

	// ErrRoleForbidden is returned when the session role is not allowed for a view or action
	ErrRoleForbidden = errors.New("role not permitted")
)
