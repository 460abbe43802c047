package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRenderFailed indicates a fragment or a format conversion failed.
	ErrRenderFailed = errors.New("render failed")

	// ErrStorage indicates the persistence layer rejected or could not complete a write.
	ErrStorage = errors.New("storage failure")

	// ErrStale indicates a write was based on a version that is no longer current.
	ErrStale = errors.New("stale write")
)

// Kind is the error taxonomy surfaced to transports.
type Kind string

// Error kinds.
const (
	KindValidation    Kind = "VALIDATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
	KindRenderFailure Kind = "RENDER_FAILURE"
	KindStorage       Kind = "STORAGE_FAILURE"
)

// sentinel returns the plain sentinel error for the kind.
func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrInvalidInput
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrAlreadyExists
	case KindRenderFailure:
		return ErrRenderFailed
	case KindStorage:
		return ErrStorage
	default:
		return nil
	}
}

// Code identifies a specific failure within a kind.
type Code string

// Error codes.
const (
	CodeInvalidParameters         Code = "INVALID_PARAMETERS"
	CodeInvalidFragmentParameters Code = "INVALID_FRAGMENT_PARAMETERS"
	CodeInvalidAlias              Code = "INVALID_ALIAS"
	CodeEmbeddingFailed           Code = "EMBEDDING_FAILED"
	CodeUnknownFormat             Code = "UNKNOWN_FORMAT"
	CodeUnknownStyle              Code = "UNKNOWN_STYLE"
	CodeUnknownTemplate           Code = "UNKNOWN_TEMPLATE"
	CodeSessionNotFound           Code = "SESSION_NOT_FOUND"
	CodeFragmentNotFound          Code = "FRAGMENT_NOT_FOUND"
	CodeArtifactNotFound          Code = "NOT_FOUND"
	CodeAliasConflict             Code = "ALIAS_CONFLICT"
	CodeFragmentRenderFailed      Code = "FRAGMENT_RENDER_FAILED"
	CodeConversionFailed          Code = "CONVERSION_FAILED"
	CodeStorageFailure            Code = "STORAGE_FAILURE"
)

// Code sentinels. Compare with errors.Is; matching is by Code.
var (
	ErrSessionNotFound   = &Error{Code: CodeSessionNotFound, Kind: KindNotFound, Message: "session not found"}
	ErrFragmentNotFound  = &Error{Code: CodeFragmentNotFound, Kind: KindNotFound, Message: "fragment not found"}
	ErrArtifactNotFound  = &Error{Code: CodeArtifactNotFound, Kind: KindNotFound, Message: "artifact not found"}
	ErrUnknownTemplate   = &Error{Code: CodeUnknownTemplate, Kind: KindNotFound, Message: "unknown template"}
	ErrUnknownFormat     = &Error{Code: CodeUnknownFormat, Kind: KindValidation, Message: "unknown format"}
	ErrUnknownStyle      = &Error{Code: CodeUnknownStyle, Kind: KindValidation, Message: "unknown style"}
	ErrAliasConflict     = &Error{Code: CodeAliasConflict, Kind: KindConflict, Message: "alias already in use"}
	ErrInvalidAlias      = &Error{Code: CodeInvalidAlias, Kind: KindValidation, Message: "invalid alias"}
	ErrInvalidParameters = &Error{Code: CodeInvalidParameters, Kind: KindValidation, Message: "invalid parameters"}
	ErrInvalidFragment   = &Error{Code: CodeInvalidFragmentParameters, Kind: KindValidation, Message: "invalid fragment parameters"}
	ErrFragmentRender    = &Error{Code: CodeFragmentRenderFailed, Kind: KindRenderFailure, Message: "fragment render failed"}
	ErrConversion        = &Error{Code: CodeConversionFailed, Kind: KindRenderFailure, Message: "format conversion failed"}
	ErrStorageFailure    = &Error{Code: CodeStorageFailure, Kind: KindStorage, Message: "storage failure"}
	ErrEmbeddingFailed   = &Error{Code: CodeEmbeddingFailed, Kind: KindValidation, Message: "embedding failed"}
)

// FieldError names one offending parameter.
type FieldError struct {
	// Field is the dotted/indexed path, e.g. "sort_by[0].order".
	Field string `json:"field"`

	// Code is set when the field failed for a reason with its own code (EMBEDDING_FAILED).
	Code Code `json:"code,omitempty"`

	// Message describes the problem.
	Message string `json:"message"`
}

// Error is the structured failure returned by the core.
type Error struct {
	Code       Code
	Kind       Kind
	Message    string
	Fields     []FieldError
	InstanceID string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(string(e.Code))
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.InstanceID != "" {
		fmt.Fprintf(&b, " (instance %s)", e.InstanceID)
	}
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f.Field)
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches code sentinels by Code and kind sentinels by Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code != "" && t.Code == e.Code
	}
	return target != nil && target == e.Kind.sentinel()
}

// With returns a copy of the sentinel carrying a more specific message and cause.
func (e *Error) With(message string, cause error) *Error {
	cp := *e
	if message != "" {
		cp.Message = message
	}
	cp.Err = cause
	cp.Fields = nil
	return &cp
}

// WithFields returns a copy of the sentinel carrying field errors.
func (e *Error) WithFields(fields []FieldError) *Error {
	cp := *e
	cp.Fields = append([]FieldError(nil), fields...)
	return &cp
}

// WithInstance returns a copy of the sentinel naming the offending fragment instance.
func (e *Error) WithInstance(instanceID string, cause error) *Error {
	cp := *e
	cp.InstanceID = instanceID
	cp.Err = cause
	return &cp
}

// KindOf returns the taxonomy kind of err, treating unknown errors as storage failures.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrRenderFailed):
		return KindRenderFailure
	default:
		return KindStorage
	}
}

// CodeOf returns the code of err, or empty when err is not a *Error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Public returns the caller-facing form of err: code, kind, message, fields
// and instance, without the wrapped cause. Errors outside the taxonomy
// become a bare STORAGE_FAILURE.
func Public(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return &Error{
			Code:       de.Code,
			Kind:       de.Kind,
			Message:    de.Message,
			Fields:     append([]FieldError(nil), de.Fields...),
			InstanceID: de.InstanceID,
		}
	}
	kind := KindOf(err)
	var base *Error
	switch kind {
	case KindNotFound:
		base = &Error{Code: CodeArtifactNotFound, Kind: KindNotFound, Message: "not found"}
	case KindConflict:
		base = ErrAliasConflict
	case KindValidation:
		base = ErrInvalidParameters
	case KindRenderFailure:
		base = ErrConversion
	default:
		base = ErrStorageFailure
	}
	cp := *base
	return &cp
}
