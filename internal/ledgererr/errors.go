// Package ledgererr defines the error taxonomy shared by the accounting core.
//
// Every domain sentinel is an *Error carrying a Kind and a stable snake_case
// code. errors.Is matches both the sentinel itself and its kind, so callers
// can branch on the category (ErrValidation, ErrNotFound, ...) without
// knowing every domain error.
package ledgererr

import "errors"

// Kind sentinels.
var (
	ErrValidation           = errors.New("validation_error")
	ErrNotFound             = errors.New("not_found")
	ErrReferentialIntegrity = errors.New("referential_integrity_error")
	ErrConcurrency          = errors.New("concurrency_conflict")
	ErrImbalancedEntry      = errors.New("imbalanced_entry")
)

// Error is a domain error tagged with its kind.
type Error struct {
	Kind error
	Code string
}

func (e *Error) Error() string { return e.Code }

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func Validation(code string) *Error           { return &Error{Kind: ErrValidation, Code: code} }
func NotFound(code string) *Error             { return &Error{Kind: ErrNotFound, Code: code} }
func ReferentialIntegrity(code string) *Error { return &Error{Kind: ErrReferentialIntegrity, Code: code} }
func Concurrency(code string) *Error          { return &Error{Kind: ErrConcurrency, Code: code} }
func Imbalanced(code string) *Error           { return &Error{Kind: ErrImbalancedEntry, Code: code} }

// KindOf returns the kind sentinel of err, or nil when err is not classified.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrReferentialIntegrity, ErrConcurrency, ErrImbalancedEntry} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Code returns the domain code of err, falling back to its kind.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Code
	}
	if kind := KindOf(err); kind != nil {
		return kind.Error()
	}
	return ""
}
