package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeIO         Code = "IO_ERROR"
	CodeEngine     Code = "ENGINE_ERROR"
	CodeDependency Code = "DEPENDENCY_ERROR"
	CodeInternal   Code = "INTERNAL_ERROR"
)

// Metadata describes a code for log output. Nothing in the batch jobs
// branches on it; every failure ends the run the same way.
type Metadata struct {
	Description string
	// Transient marks failures that may succeed on a manual rerun.
	Transient bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Description: "input or configuration rejected",
	},
	CodeNotFound: {
		Description: "input not found",
	},
	CodeIO: {
		Description: "filesystem operation failed",
		Transient:   true,
	},
	CodeEngine: {
		Description: "compute engine failed",
		Transient:   true,
	},
	CodeDependency: {
		Description: "external dependency unavailable",
		Transient:   true,
	},
	CodeInternal: {
		Description: "internal error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
	stack   []byte
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// FromPanic turns a recovered panic value into an INTERNAL error carrying the
// stack captured at the recovery site.
func FromPanic(recovered any, stack []byte) *Error {
	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("%v", recovered)
	}
	return &Error{code: CodeInternal, message: "panic recovered", cause: err, stack: stack}
}

// StackOf returns the first captured panic stack in err's chain, or nil.
func StackOf(err error) []byte {
	for err != nil {
		var typed *Error
		if !stdErrors.As(err, &typed) {
			return nil
		}
		if len(typed.stack) > 0 {
			return typed.stack
		}
		err = typed.cause
	}
	return nil
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of the outermost coded error in err's chain.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}
