package render

import "errors"

type Code string

const (
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeRenderFailed Code = "RENDER_FAILED"
)

// Error is a render failure: nothing usable was produced. Delivery failures
// are reported as *printer.TransportError instead.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func invalid(msg string, cause error) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg, Cause: cause}
}

func failed(msg string, cause error) *Error {
	return &Error{Code: CodeRenderFailed, Message: msg, Cause: cause}
}

// IsInvalidInput reports whether err rejects the request itself.
func IsInvalidInput(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeInvalidInput
}
