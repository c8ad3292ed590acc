package sources

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredentials is a configuration-class error raised at client
// construction, never deferred to the first call.
var ErrMissingCredentials = errors.New("search provider API key missing")

// RequestError normalizes provider-specific failures into a uniform shape
// carrying the operation name and query parameters.
type RequestError struct {
	Op    string
	Query string
	Err   error
}

func (e *RequestError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s (%q): %v", e.Op, e.Query, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsQuotaExhausted reports whether the error indicates the provider's search
// quota ran out. Discovery stops remaining categories in the pass when it
// sees this.
func IsQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "run out of searches") || strings.Contains(msg, "quota")
}
