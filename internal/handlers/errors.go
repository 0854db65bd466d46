package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

const (
	msgDomainNotFound   = "Domain not found"
	msgLinkNotFound     = "Link not found"
	msgLinkExpired      = "Link has expired"
	msgPasswordRequired = "Password required"
	msgInvalidPassword  = "Invalid password"
	msgServerError      = "Server error"
)

// APIError is the JSON envelope of every error response:
// {"success":false,"message":"...","requiresPassword":true}.
type APIError struct {
	status           int
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	RequiresPassword bool     `json:"requiresPassword,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// NewAPIError matches huma.NewError so framework errors share the envelope.
// Details are dropped for server errors.
func NewAPIError(status int, msg string, errs ...error) huma.StatusError {
	e := &APIError{status: status, Message: msg}

	if status >= http.StatusInternalServerError {
		return e
	}

	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err.Error())
		}
	}

	return e
}

func errNotFound(msg string) *APIError {
	return &APIError{status: http.StatusNotFound, Message: msg}
}

func errGone(msg string) *APIError {
	return &APIError{status: http.StatusGone, Message: msg}
}

func errPassword(msg string) *APIError {
	return &APIError{status: http.StatusUnauthorized, Message: msg, RequiresPassword: true}
}

func errServer() *APIError {
	return &APIError{status: http.StatusInternalServerError, Message: msgServerError}
}

func errStatus(status int, msg string) *APIError {
	return &APIError{status: status, Message: msg}
}
