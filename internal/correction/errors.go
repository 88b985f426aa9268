package correction

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidResponse = errors.New("invalid correction response")
	ErrDisposed        = errors.New("exercise instance disposed")
)

// NetworkError is a transport failure or timeout talking to the Correction
// Service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("correction %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerRejection is a non-2xx answer from the Correction Service.
type ServerRejection struct {
	StatusCode int
	Body       string
}

func (e *ServerRejection) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("correction service rejected request: status %d", e.StatusCode)
	}
	return fmt.Sprintf("correction service rejected request: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the rejection is worth retrying in place.
func (e *ServerRejection) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsServerRejection(err error) bool {
	var sr *ServerRejection
	return errors.As(err, &sr)
}

// IsRetryable reports whether a failed submission may be retried by the
// host. The answer state is untouched for all of these.
func IsRetryable(err error) bool {
	return IsNetworkError(err) || IsServerRejection(err) || errors.Is(err, ErrInvalidResponse)
}
