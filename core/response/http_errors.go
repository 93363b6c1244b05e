package response

import "net/http"

// HTTPError represents a structured error response that implements the error interface.
// It is also the typed error value handed to pages when a data getter fails.
type HTTPError struct {
	Status  int            `json:"status"`            // HTTP status code
	Code    string         `json:"code"`              // Machine-readable error code
	Message string         `json:"message"`           // Human-readable message
	Details map[string]any `json:"details,omitempty"` // Optional context
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for the error.
// This allows HTTPError to work with the router's statusCode interface.
func (e HTTPError) StatusCode() int {
	return e.Status
}

// Expected reports whether the error is a client-side (4xx) condition that
// pages usually render as regular content rather than a crash screen.
func (e HTTPError) Expected() bool {
	return e.Status >= 400 && e.Status < 500
}

// WithMessage returns a copy of the error with a custom message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	e.Details = details
	return e
}

// WithError returns a copy of the error with an error cause.
func (e HTTPError) WithError(err error) HTTPError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details["cause"] = err.Error()
	e.Details = details
	return e
}

func newStatusError(status int, code string) HTTPError {
	return HTTPError{Status: status, Code: code, Message: http.StatusText(status)}
}

// Predefined HTTP errors using http.StatusText for default messages.
var (
	ErrBadRequest          = newStatusError(http.StatusBadRequest, "bad_request")
	ErrUnauthorized        = newStatusError(http.StatusUnauthorized, "unauthorized")
	ErrForbidden           = newStatusError(http.StatusForbidden, "forbidden")
	ErrNotFound            = newStatusError(http.StatusNotFound, "not_found")
	ErrMethodNotAllowed    = newStatusError(http.StatusMethodNotAllowed, "method_not_allowed")
	ErrRequestTimeout      = newStatusError(http.StatusRequestTimeout, "request_timeout")
	ErrConflict            = newStatusError(http.StatusConflict, "conflict")
	ErrGone                = newStatusError(http.StatusGone, "gone")
	ErrUnprocessableEntity = newStatusError(http.StatusUnprocessableEntity, "unprocessable_entity")
	ErrTooManyRequests     = newStatusError(http.StatusTooManyRequests, "too_many_requests")
	ErrInternalServerError = newStatusError(http.StatusInternalServerError, "internal_server_error")
	ErrNotImplemented      = newStatusError(http.StatusNotImplemented, "not_implemented")
	ErrBadGateway          = newStatusError(http.StatusBadGateway, "bad_gateway")
	ErrServiceUnavailable  = newStatusError(http.StatusServiceUnavailable, "service_unavailable")
	ErrGatewayTimeout      = newStatusError(http.StatusGatewayTimeout, "gateway_timeout")
)

var httpErrorsByStatus = map[int]HTTPError{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusNotFound:            ErrNotFound,
	http.StatusMethodNotAllowed:    ErrMethodNotAllowed,
	http.StatusRequestTimeout:      ErrRequestTimeout,
	http.StatusConflict:            ErrConflict,
	http.StatusGone:                ErrGone,
	http.StatusUnprocessableEntity: ErrUnprocessableEntity,
	http.StatusTooManyRequests:     ErrTooManyRequests,
	http.StatusInternalServerError: ErrInternalServerError,
	http.StatusNotImplemented:      ErrNotImplemented,
	http.StatusBadGateway:          ErrBadGateway,
	http.StatusServiceUnavailable:  ErrServiceUnavailable,
	http.StatusGatewayTimeout:      ErrGatewayTimeout,
}
