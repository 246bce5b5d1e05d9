package ads

import (
	"errors"
	"fmt"

	"github.com/AccelByte/extend-ads-policy/pkg/lifecycle"
	"github.com/AccelByte/extend-ads-policy/pkg/provider"
)

// ProviderError wraps a backend failure with the format and the operation
// that failed. Listeners receive these; a policy denial is never one of
// them, it is a SkipReason.
type ProviderError struct {
	Format provider.Format
	Op     string // "load" or "show"
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s ad %s failed: %v", e.Format, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNoFill reports whether the failure was an empty ad server response, a
// routine outcome rather than an infrastructure error.
func IsNoFill(err error) bool {
	return errors.Is(err, provider.ErrNoFill)
}

// IsLoadTimeout reports whether the load gave up waiting for the backend.
func IsLoadTimeout(err error) bool {
	return errors.Is(err, lifecycle.ErrLoadTimeout)
}
