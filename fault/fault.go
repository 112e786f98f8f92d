package fault

import (
	"errors"
	"fmt"
)

type faultCode string

const (
	UnknownCode          faultCode = "unknown"
	NotFoundCode         faultCode = "not_found"
	BadInputCode         faultCode = "bad_input"
	PermissionDeniedCode faultCode = "permission_denied"
	UnsupportedCode      faultCode = "unsupported"
	UnavailableCode      faultCode = "unavailable"
)

// Fault is an error with a code that outer layers map to a response.
type Fault interface {
	error
	Code() faultCode
	Message() string
	Metadata() any
	Original() error
}

type FieldErrorsMetadata map[string][]string

type fault struct {
	code     faultCode
	message  string
	metadata any
	original error
}

func New(code faultCode, message string) fault {
	return fault{
		code:    code,
		message: message,
	}
}

func (f fault) WithMetadata(metadata any) fault {
	e := f
	e.metadata = metadata
	return e
}

func (f fault) WithOriginal(original error) fault {
	e := f
	e.original = original
	return e
}

func (f fault) Code() faultCode {
	return f.code
}

func (f fault) Message() string {
	return f.message
}

func (f fault) Metadata() any {
	return f.metadata
}

func (f fault) Original() error {
	return f.original
}

func (f fault) Unwrap() error {
	return f.original
}

// Is matches faults by code, so errors.Is(err, fault.New(fault.NotFoundCode, ""))
// reports whether err is a not found fault.
func (f fault) Is(target error) bool {
	t, ok := target.(fault)
	return ok && t.code == f.code
}

// CodeOf returns the code of the first fault in err's chain, or UnknownCode.
func CodeOf(err error) faultCode {
	var f Fault
	if errors.As(err, &f) {
		return f.Code()
	}
	return UnknownCode
}

func (f fault) Error() string {
	if f.original != nil {
		return fmt.Sprintf("%s: %v", f.message, f.original)
	}
	return f.message
}
