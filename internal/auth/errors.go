package auth

import "errors"

var (
	// ErrTokenInvalid is returned for tokens that fail signature, expiry
	// or claim checks.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrUnknownRole is returned when minting a token for an unknown role.
	ErrUnknownRole = errors.New("auth: unknown role")

	// ErrEmptySecret is returned when no signing secret is configured.
	ErrEmptySecret = errors.New("auth: empty secret")
)
