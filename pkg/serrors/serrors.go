package serrors

import "fmt"

// Error is a coded error shared by services and the API layer.
type Error struct {
	Code    string
	Message string
	Details string
}

func NewError(code, message, details string) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

func (e *Error) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}
