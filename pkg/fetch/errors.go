package fetch

import (
	"fmt"
	"net/http"

	"github.com/KonishchevDmitry/feedfix/internal/util"
)

type temporaryError struct {
	error error
}

var _ util.Temporary = temporaryError{}

func makeTemporaryError(err error) temporaryError {
	return temporaryError{error: err}
}

func (e temporaryError) Temporary() bool {
	return true
}

func (e temporaryError) Error() string {
	return e.error.Error()
}

func (e temporaryError) Unwrap() error {
	return e.error
}

// HTTPError is returned by Response.Err for any status other than 200 OK.
type HTTPError struct {
	StatusCode int
	Status     string
}

var _ util.Temporary = &HTTPError{}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("the server returned an error: %s", e.Status)
}

func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

func isThrottled(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable
}
