package cookie

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSecret is returned when the manager is created without any secret.
	ErrNoSecret = errors.New("cookie: no signing secret provided")
	// ErrSecretTooShort is returned when a secret is below the minimum length.
	ErrSecretTooShort = errors.New("cookie: secret too short")
	// ErrCookieNotFound is returned when the request carries no such cookie.
	ErrCookieNotFound = errors.New("cookie: not found")
	// ErrInvalidFormat is returned when a signed value is malformed.
	ErrInvalidFormat = errors.New("cookie: invalid signed value format")
	// ErrInvalidSignature is returned when no secret verifies the signature.
	ErrInvalidSignature = errors.New("cookie: invalid signature")
)

// ErrCookieTooLarge is returned when a cookie exceeds the size limit.
type ErrCookieTooLarge struct {
	Name string
	Size int
	Max  int
}

func (e ErrCookieTooLarge) Error() string {
	return fmt.Sprintf("cookie: %q is %d bytes, exceeds limit of %d", e.Name, e.Size, e.Max)
}
