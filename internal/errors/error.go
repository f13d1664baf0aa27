package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime Category = "runtime"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
	CategoryReport  Category = "report"
)

// ReactorError is a structured error with an explanation, a suggestion and
// documentation.
type ReactorError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error type (runtime, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Node names the reactive node involved, if any.
	Node string

	// Path is the dependency path of a cycle.
	Path []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ReactorError) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ReactorError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ReactorError) WithSuggestion(s string) *ReactorError {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *ReactorError) WithExample(ex string) *ReactorError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *ReactorError) WithDetail(d string) *ReactorError {
	e.Detail = d
	return e
}

// WithNode records the reactive node involved.
func (e *ReactorError) WithNode(name string) *ReactorError {
	e.Node = name
	return e
}

// Wrap wraps another error.
func (e *ReactorError) Wrap(err error) *ReactorError {
	e.Wrapped = err
	return e
}

// New creates a ReactorError from a registered error code.
func New(code string) *ReactorError {
	template, ok := registry[code]
	if !ok {
		return &ReactorError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ReactorError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new ReactorError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ReactorError {
	return &ReactorError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Wrapf wraps err in a registered error and overrides its message.
func Wrapf(err error, code, format string, args ...any) *ReactorError {
	e := New(code).Wrap(err)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// FromError classifies err into a ReactorError.
//
// Errors from package reactive map onto the runtime codes; errors already
// classified are returned as is; anything else is wrapped as R000. When err
// joins several failures, the first one decides the code.
func FromError(err error) *ReactorError {
	if err == nil {
		return nil
	}
	var re *ReactorError
	if stderrors.As(err, &re) {
		return re
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := joined.Unwrap(); len(errs) > 0 {
			first := FromError(errs[0])
			if len(errs) > 1 {
				first = cloneWith(first, err)
				first.Detail = strings.TrimSpace(fmt.Sprintf("%s (%d failures in total)", first.Detail, len(errs)))
			}
			return first
		}
	}

	var (
		cycle  *reactive.CyclicDependencyError
		stale  *reactive.StaleHandleError
		memo   *reactive.MemoError
		effect *reactive.EffectError
	)
	switch {
	case stderrors.As(err, &cycle):
		e := New("R002").Wrap(err)
		for _, ref := range cycle.Path {
			e.Path = append(e.Path, ref.String())
		}
		if stderrors.As(err, &memo) {
			e.Node = memo.Memo.String()
		}
		return e.WithExample(`total := reactive.NewMemo(rt, func() int {
    return base.Get() + total.Peek() // Peek does not subscribe
})`)
	case stderrors.As(err, &stale):
		e := New("R001").Wrap(err)
		if stale.Foreign {
			e.Detail = "The handle was minted by a different runtime. Handles are only valid against the runtime that created them."
		}
		return e
	case stderrors.Is(err, reactive.ErrBudgetExceeded):
		return New("R005").Wrap(err).WithExample(`reactive.CreateEffect(rt, func() reactive.Cleanup {
    if next := src.Get() * 2; next != dst.Peek() {
        _ = dst.Set(next)
    }
    return nil
})`)
	case stderrors.Is(err, reactive.ErrScopeDisposed):
		return New("R006").Wrap(err)
	case stderrors.As(err, &effect):
		return New("R003").Wrap(err).WithNode(effect.Effect.String())
	case stderrors.As(err, &memo):
		return New("R004").Wrap(err).WithNode(memo.Memo.String())
	}
	return New("R000").Wrap(err)
}

// cloneWith copies e and makes it wrap err instead.
func cloneWith(e *ReactorError, err error) *ReactorError {
	c := *e
	c.Path = append([]string(nil), e.Path...)
	c.Wrapped = err
	return &c
}

// Code returns the code of err, or "" if err is not a ReactorError.
func Code(err error) string {
	var re *ReactorError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return ""
}
