// Package ouxerr defines oxdb's structured error type and the fixed set
// of error kinds the storage and document engine can surface.
package ouxerr

import "fmt"

// Kind is one of the fixed error categories the core engine can raise.
type Kind string

const (
	// BadArgument means the caller violated a precondition.
	BadArgument Kind = "bad_argument"
	// BadFormat means on-disk bytes could not be decoded with any
	// configured codec.
	BadFormat Kind = "bad_format"
	// NotFound means an id, key, document, or database that must exist
	// does not.
	NotFound Kind = "not_found"
	// Io means an underlying file-system error occurred.
	Io Kind = "io"
	// EmbeddingFailed means the embedding provider returned an error.
	EmbeddingFailed Kind = "embedding_failed"
	// Internal means an invariant was violated; a hit indicates a bug.
	Internal Kind = "internal"
)

// OxErr is the structured error type used throughout oxdb.
type OxErr struct {
	Kind    Kind
	Message string
	Details map[string]string
	Cause   error
}

// Error implements the error interface.
func (e *OxErr) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *OxErr) Unwrap() error {
	return e.Cause
}

// Is matches OxErr values by Kind, so errors.Is(err, ouxerr.New(BadFormat, "", nil)) works.
func (e *OxErr) Is(target error) bool {
	t, ok := target.(*OxErr)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key-value detail and returns the error for chaining.
func (e *OxErr) WithDetail(key, value string) *OxErr {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates an OxErr of the given kind.
func New(kind Kind, message string, cause error) *OxErr {
	return &OxErr{Kind: kind, Message: message, Cause: cause}
}

func newf(kind Kind, format string, args ...any) *OxErr {
	return &OxErr{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// BadArgumentf builds a BadArgument error with a formatted message.
func BadArgumentf(format string, args ...any) *OxErr { return newf(BadArgument, format, args...) }

// BadFormatErr wraps a decode failure as BadFormat.
func BadFormatErr(message string, cause error) *OxErr { return New(BadFormat, message, cause) }

// NotFoundf builds a NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *OxErr { return newf(NotFound, format, args...) }

// IoErr wraps a file-system error as Io.
func IoErr(message string, cause error) *OxErr { return New(Io, message, cause) }

// EmbeddingErr wraps an embedding provider failure.
func EmbeddingErr(message string, cause error) *OxErr { return New(EmbeddingFailed, message, cause) }

// Internalf builds an Internal error signalling an invariant violation.
func Internalf(format string, args ...any) *OxErr { return newf(Internal, format, args...) }

// Is reports whether err is an *OxErr of the given kind.
func Is(err error, kind Kind) bool {
	oe, ok := err.(*OxErr)
	return ok && oe.Kind == kind
}

// GetKind extracts the Kind from err, or "" if err is not an *OxErr.
func GetKind(err error) Kind {
	if oe, ok := err.(*OxErr); ok {
		return oe.Kind
	}
	return ""
}
