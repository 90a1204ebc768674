package datasource

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/ffsync/go-server-sdk/subsystems"
)

type httpStatusError struct {
	Message string
	Code    int
}

func (e httpStatusError) Error() string {
	return e.Message
}

type malformedJSONError struct {
	innerError error
}

func (e malformedJSONError) Error() string {
	return "malformed JSON data: " + e.innerError.Error()
}

func (e malformedJSONError) Unwrap() error {
	return e.innerError
}

// Tests whether an HTTP error status represents a condition that might resolve on its own if we retry.
// The engine keeps polling either way; this only decides how loudly the failure is logged.
func isHTTPErrorRecoverable(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		switch statusCode {
		case 400: // bad request
			return true
		case 408: // request timeout
			return true
		case 429: // too many requests
			return true
		default:
			return false // all other 4xx errors are unrecoverable
		}
	}
	return true
}

func httpErrorDescription(statusCode int) string {
	message := ""
	if statusCode == 401 || statusCode == 403 {
		message = " (invalid API key or token)"
	}
	return fmt.Sprintf("HTTP error %d%s", statusCode, message)
}

// Logs a failed cycle at the appropriate level. A failure whose status code suggests that retrying
// will not help (such as an invalid key) is logged as an error; anything else is a warning.
func logCycleFailure(loggers ldlog.Loggers, errorDesc string, cause error, willRetryMessage string) {
	if statusCode := unrecoverableStatusCode(cause); statusCode > 0 {
		loggers.Errorf("Error %s (%s, but %s is unlikely to resolve on its own): %s",
			pollingErrorContext, willRetryMessage, httpErrorDescription(statusCode), errorDesc)
		return
	}
	loggers.Warnf("Error %s (%s): %s", pollingErrorContext, willRetryMessage, errorDesc)
}

// Returns the first unrecoverable HTTP status found among the errors wrapped by err, or zero.
func unrecoverableStatusCode(err error) int {
	var wrapped interface{ WrappedErrors() []error }
	errs := []error{err}
	if errors.As(err, &wrapped) {
		errs = wrapped.WrappedErrors()
	}
	for _, e := range errs {
		var fe *subsystems.FetchError
		if errors.As(e, &fe) && fe.StatusCode > 0 && !isHTTPErrorRecoverable(fe.StatusCode) {
			return fe.StatusCode
		}
	}
	return 0
}

func checkForHTTPError(statusCode int, url string) error {
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return httpStatusError{
			Message: fmt.Sprintf("Invalid API key or token when accessing URL: %s. Verify that your key is correct.", url),
			Code:    statusCode,
		}
	}

	if statusCode == http.StatusNotFound {
		return httpStatusError{
			Message: fmt.Sprintf("Resource not found when accessing URL: %s. Verify that this environment exists.", url),
			Code:    statusCode,
		}
	}

	if statusCode/100 != 2 {
		return httpStatusError{
			Message: fmt.Sprintf("Unexpected response code: %d when accessing URL: %s", statusCode, url),
			Code:    statusCode,
		}
	}
	return nil
}

// Converts an error from the HTTP layer into the FetchError type that RemoteSource callers see.
func toFetchError(what string, err error) error {
	if err == nil {
		return nil
	}
	var hse httpStatusError
	if errors.As(err, &hse) {
		return &subsystems.FetchError{Message: httpErrorDescription(hse.Code), StatusCode: hse.Code, Err: hse}
	}
	var mje malformedJSONError
	if errors.As(err, &mje) {
		return &subsystems.FetchError{Message: "invalid " + what + " data", Err: mje}
	}
	return &subsystems.FetchError{Message: "request for " + what + " failed", Err: err}
}
