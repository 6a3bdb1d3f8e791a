package magiclink

import "errors"

var (
	// ErrSecretTooShort is returned when the signing secret is below 32 bytes.
	ErrSecretTooShort = errors.New("magiclink: secret must be at least 32 bytes")
	// ErrInvalidToken is returned when a token is malformed or forged.
	ErrInvalidToken = errors.New("magiclink: invalid token")
	// ErrExpiredToken is returned when a token is past its expiration.
	ErrExpiredToken = errors.New("magiclink: token expired")
	// ErrFailedToSend is returned when link delivery fails.
	ErrFailedToSend = errors.New("magiclink: failed to send email")
)
