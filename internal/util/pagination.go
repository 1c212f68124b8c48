package util

import "fmt"

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// Window checks skip/limit query values. A zero limit means "not given"
// and becomes DefaultLimit.
func Window(skip, limit int) (offset, size int, err error) {
	if skip < 0 {
		return 0, 0, fmt.Errorf("skip must be >= 0")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return 0, 0, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}
	return skip, limit, nil
}
