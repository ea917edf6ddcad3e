package apierror

import "fmt"

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`

	// Data is rendered next to the error in the response envelope.
	Data any `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithData returns a copy of e carrying data.
func (e *APIError) WithData(data any) *APIError {
	clone := *e
	clone.Data = data
	return &clone
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func BadRequest(message string, details string) *APIError {
	return New("BAD_REQUEST", message, details, 400)
}

func NotFound(message string, details string) *APIError {
	return New("NOT_FOUND", message, details, 404)
}

func Conflict(message string, details string) *APIError {
	return New("CONFLICT", message, details, 409)
}

func Forbidden(message string) *APIError {
	return New("FORBIDDEN", message, "", 403)
}

func Unauthorized(code string, message string) *APIError {
	return New(code, message, "", 401)
}
