package port

import "errors"

// ErrInvalidCredentials is returned for an unknown user or a wrong password alike
var ErrInvalidCredentials = errors.New("invalid username or password")
