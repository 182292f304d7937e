package analyzer

import (
	"errors"
)

// Kind classifies why an analysis failed. The set is closed.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindEmptyInput
	KindDecode
	KindUnsupportedType
	KindNoContent
	KindInference
)

var kindNames = map[Kind]string{
	KindNotFound:        "NotFoundError",
	KindEmptyInput:      "EmptyInputError",
	KindDecode:          "DecodeError",
	KindUnsupportedType: "UnsupportedTypeError",
	KindNoContent:       "NoContentError",
	KindInference:       "InferenceError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UnknownError"
}

// Error lets a Kind act as a sentinel for errors.Is.
func (k Kind) Error() string { return k.String() }

// Sentinels for errors.Is(err, analyzer.ErrNoContent) and friends.
var (
	ErrNotFound        error = KindNotFound
	ErrEmptyInput      error = KindEmptyInput
	ErrDecode          error = KindDecode
	ErrUnsupportedType error = KindUnsupportedType
	ErrNoContent       error = KindNoContent
	ErrInference       error = KindInference
)

// Error is a failed analysis: one kind, a human-readable message and the
// underlying cause if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf reports the kind of an analysis error.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}
