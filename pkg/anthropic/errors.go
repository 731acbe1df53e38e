package anthropic

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/sells-group/tilesweep/internal/resilience"
)

// statusOverloaded is returned by the API when it is temporarily overloaded.
const statusOverloaded = 529

// IsTransient reports whether err from CreateMessage is an outage rather
// than a bad request: retryable API statuses, request timeouts and network
// errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusOverloaded || resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return resilience.IsTransient(err)
}
