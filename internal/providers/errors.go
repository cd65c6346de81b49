package providers

import (
	"fmt"
)

// BitwardenError wraps Bitwarden API errors with context
type BitwardenError struct {
	Op         string // Operation: "list"
	StatusCode int
	Message    string
	Err        error
}

func (e *BitwardenError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("bitwarden %s error (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("bitwarden %s error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("bitwarden %s error: %s", e.Op, e.Message)
}

func (e *BitwardenError) Unwrap() error {
	return e.Err
}

// InfisicalError wraps Infisical API errors with context.
//
// StatusCode is zero for transport failures; Err then holds the cause.
type InfisicalError struct {
	Op         string // Operation: "auth", "get", "create", "update", "delete", "list"
	StatusCode int
	Message    string
	Err        error
}

func (e *InfisicalError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("infisical %s error (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("infisical %s error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("infisical %s error: %s", e.Op, e.Message)
}

func (e *InfisicalError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the response status, or zero for a transport failure
func (e *InfisicalError) HTTPStatus() int {
	return e.StatusCode
}

// APIMessage returns the API's own error text
func (e *InfisicalError) APIMessage() string {
	return e.Message
}
