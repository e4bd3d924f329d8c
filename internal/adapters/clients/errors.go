// Package clients provides the outbound HTTP client used to fetch a remote
// dataset.
package clients

import "errors"

// Transport-level failures. Adapters translate these into domain errors.
var (
	// ErrCircuitOpen is returned without contacting the host while the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is spent.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
