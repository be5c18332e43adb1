package generator

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when a backend answers with no content.
var ErrEmptyResponse = errors.New("generator returned an empty response")

// FormatError reports backend output that could not be parsed as a JSON object.
type FormatError struct {
	Raw string // Output as received from the backend
	Err error  // Underlying parse failure
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("generator output is not a JSON object: %v (output: %s)", e.Err, truncate(e.Raw, 200))
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
