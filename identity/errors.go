package identity

import (
	"errors"
	"strings"
)

var (
	// ErrEmailNotFound is returned for the provider code EMAIL_NOT_FOUND.
	ErrEmailNotFound = errors.New("email not registered")
	// ErrInvalidPassword is returned for the provider code INVALID_PASSWORD.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrUserDisabled is returned for the provider code USER_DISABLED.
	ErrUserDisabled = errors.New("user disabled")
	// ErrInvalidCredentials is returned for the provider code INVALID_LOGIN_CREDENTIALS.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrUnknown is matched by every [*ProviderError] carrying an unrecognized code.
	ErrUnknown = errors.New("identity provider error")
	// ErrUnavailable is returned when the endpoint cannot be reached.
	ErrUnavailable = errors.New("identity endpoint unavailable")
	// ErrMalformedResponse is returned when a success response is missing required fields.
	ErrMalformedResponse = errors.New("identity response malformed")
)

// ProviderError carries an unrecognized provider error verbatim.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return ErrUnknown.Error()
	}
	return e.Message
}

// Is reports whether target is [ErrUnknown].
func (e *ProviderError) Is(target error) bool {
	return target == ErrUnknown
}

// MapProviderCode translates a provider error message into a sentinel error.
// Messages of the form "CODE : detail" are matched on CODE.
func MapProviderCode(status int, message string) error {
	code := message
	if i := strings.Index(code, " : "); i >= 0 {
		code = code[:i]
	}
	switch strings.TrimSpace(code) {
	case "EMAIL_NOT_FOUND":
		return ErrEmailNotFound
	case "INVALID_PASSWORD":
		return ErrInvalidPassword
	case "USER_DISABLED":
		return ErrUserDisabled
	case "INVALID_LOGIN_CREDENTIALS":
		return ErrInvalidCredentials
	default:
		return &ProviderError{Status: status, Message: message}
	}
}
