package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies every error that crosses the core's boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindMalformedContent
	KindSizeMismatch
	KindStorageUnavailable
	KindKeyExists
	KindDuplicateID
	KindNotFound
	KindIngestionFailed
	KindOrphanedBlob
	KindCorruptState
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindValidation:         "validation_error",
	KindMalformedContent:   "malformed_content",
	KindSizeMismatch:       "size_mismatch",
	KindStorageUnavailable: "storage_unavailable",
	KindKeyExists:          "key_exists",
	KindDuplicateID:        "duplicate_id",
	KindNotFound:           "not_found",
	KindIngestionFailed:    "ingestion_failed",
	KindOrphanedBlob:       "orphaned_blob",
	KindCorruptState:       "corrupt_state",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrMalformedContent   = &Error{Kind: KindMalformedContent}
	ErrSizeMismatch       = &Error{Kind: KindSizeMismatch}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
	ErrKeyExists          = &Error{Kind: KindKeyExists}
	ErrDuplicateID        = &Error{Kind: KindDuplicateID}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrIngestionFailed    = &Error{Kind: KindIngestionFailed}
	ErrOrphanedBlob       = &Error{Kind: KindOrphanedBlob}
	ErrCorruptState       = &Error{Kind: KindCorruptState}
)

// Error is a classified error. Op names the operation that failed and Err
// holds the underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var s string
	switch {
	case e.Op != "" && e.Msg != "":
		s = fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	case e.Op != "":
		s = fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Msg != "":
		s = fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		s = e.Kind.String()
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a classified error of the same kind. This lets
// the package sentinels match any error of their kind regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

// New returns a classified error without an underlying cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Classify returns err unchanged when it already carries a kind and wraps it
// under fallback otherwise.
func Classify(err error, fallback Kind, op string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return Wrap(fallback, op, err)
}
