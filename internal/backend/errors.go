package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bissquit/mediconnect-console/internal/pkg/httputil"
)

// Client errors.
var (
	// ErrUnauthenticated is matched by any 401 response.
	ErrUnauthenticated = errors.New("not authenticated with the platform")
	// ErrUnavailable wraps transport failures and open-circuit rejections.
	ErrUnavailable = errors.New("platform API unavailable")
	// ErrMalformedResponse means a 2xx body did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed platform response")
)

// UnavailableMessage is shown when the platform cannot be reached.
const UnavailableMessage = "Unable to reach the server. Please try again."

// ErrorMappings apply to every call made through Client.
var ErrorMappings = []httputil.ErrorMapping{
	{Error: ErrUnavailable, Status: http.StatusServiceUnavailable, Message: UnavailableMessage},
}

// APIError is a non-2xx response from the platform API.
type APIError struct {
	Status  int
	Message string // server-provided "msg", may be empty
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("platform error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("platform error %d", e.Status)
}

// Is lets errors.Is(err, ErrUnauthenticated) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == http.StatusUnauthorized
}

// MessageOr returns the server message, or fallback when the server sent none.
func (e *APIError) MessageOr(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}
