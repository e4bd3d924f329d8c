package acl

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/jsamuelsen/verse-service/internal/adapters/clients"
	"github.com/jsamuelsen/verse-service/internal/domain"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4 << 10

// errorBody covers the two common error envelopes: {"error":{"message":..}}
// and {"message":..}.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func (e *errorBody) message() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// parseErrorBody returns the message of a JSON error envelope, or "".
func parseErrorBody(body io.Reader) string {
	if body == nil {
		return ""
	}

	var eb errorBody
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&eb); err != nil {
		return ""
	}

	return eb.message()
}

// MapHTTPError translates a failed fetch into a domain error. Exactly one of
// resp and clientErr is expected to be set.
//
//   - 404 becomes domain.ErrNotFound for the resource.
//   - 401 and 403 become domain.ErrForbidden.
//   - Everything else, including transport failures, an open circuit and
//     exhausted retries, becomes domain.ErrUnavailable.
func MapHTTPError(resp *http.Response, clientErr error, service, resource string) error {
	if clientErr != nil {
		switch {
		case errors.Is(clientErr, clients.ErrCircuitOpen):
			return domain.NewUnavailableError(service, "circuit breaker open")
		case errors.Is(clientErr, clients.ErrMaxRetriesExceeded):
			return domain.NewUnavailableError(service, clientErr.Error())
		default:
			return domain.NewUnavailableError(service, fmt.Sprintf("fetching %s: %v", resource, clientErr))
		}
	}

	if resp == nil {
		return domain.NewUnavailableError(service, "no response received")
	}

	message := parseErrorBody(resp.Body)
	if message == "" {
		message = fmt.Sprintf("fetching %s: unexpected status %d", resource, resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return domain.NewNotFoundError("resource", resource)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.NewForbiddenError("fetch "+resource, message)
	default:
		return domain.NewUnavailableError(service, message)
	}
}
