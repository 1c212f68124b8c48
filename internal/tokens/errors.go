package tokens

import "errors"

var (
	ErrMissingToken   = errors.New("missing token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("expired token")
	ErrUnknownSubject = errors.New("unknown subject")
	ErrRevokedToken   = errors.New("revoked token")
)

// IsAuthError reports whether err is one of the authentication failures
// above. Callers answer all of them with 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrUnknownSubject) ||
		errors.Is(err, ErrRevokedToken)
}
