// Package cacheerr implements the error taxonomy of the engine's contract:
// client-fault errors are raised to the caller, infrastructure errors on
// reads are recovered locally as a miss, and disk failures are always
// surfaced.
package cacheerr

import "fmt"

// Code identifies the class of failure a Error carries.
type Code int

const (
	// CodeInvalidKey: key is empty or otherwise malformed. Raised; no
	// state change.
	CodeInvalidKey Code = iota + 1
	// CodeWrongType: value supplied to Put/PutMany is not an instance of
	// the registered type. Raised before any write.
	CodeWrongType
	// CodeSerializationFailure: the codec could not serialize the
	// record. Aborts PutMany atomically.
	CodeSerializationFailure
	// CodeItemTooLarge: a serialized record exceeds the disk byte
	// budget outright (not merely the memory/oversized threshold).
	CodeItemTooLarge
	// CodeDiskFailure: the backing store raised during a read or write.
	// Always surfaced; no partial batch is committed.
	CodeDiskFailure
	// CodeClosed: operation invoked after Close().
	CodeClosed
)

func (c Code) String() string {
	switch c {
	case CodeInvalidKey:
		return "invalid_key"
	case CodeWrongType:
		return "wrong_type"
	case CodeSerializationFailure:
		return "serialization_failure"
	case CodeItemTooLarge:
		return "item_too_large"
	case CodeDiskFailure:
		return "disk_failure"
	case CodeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error is the structured error type raised across the public contract.
// DeserializationFailure, CorruptRow, and SchemaMismatch are deliberately
// absent here: per the engine's error-handling design those are recovered
// locally (delete-and-miss) and never constructed as an Error the caller
// sees.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tiercache: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("tiercache: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidKey(key, reason string) *Error {
	return newError(CodeInvalidKey, fmt.Sprintf("invalid key %q: %s", key, reason), nil)
}

func WrongType(expected, got string) *Error {
	return newError(CodeWrongType, fmt.Sprintf("value must be an instance of %s, got %s", expected, got), nil)
}

func SerializationFailure(key string, cause error) *Error {
	return newError(CodeSerializationFailure, fmt.Sprintf("failed to serialize value for key %q", key), cause)
}

func ItemTooLarge(key string, size, maxSize int64) *Error {
	return newError(CodeItemTooLarge, fmt.Sprintf("item for key %q (%d bytes) exceeds max_disk_size_bytes (%d bytes)", key, size, maxSize), nil)
}

func DiskFailure(message string, cause error) *Error {
	return newError(CodeDiskFailure, message, cause)
}

func Closed() *Error {
	return newError(CodeClosed, "cache is closed", nil)
}

// Is reports whether err is a *Error carrying the given code, so callers
// can write `errors.Is`-style checks against a code instead of a message.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return e != nil && e.Code == code
}
