package shared

import (
	"errors"
	"strconv"
)

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
