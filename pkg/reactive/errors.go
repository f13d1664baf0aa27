package reactive

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStaleHandle is matched by every *StaleHandleError.
// A handle goes stale when its node's scope is disposed, or when it is used
// against a runtime other than the one that minted it.
var ErrStaleHandle = errors.New("reactive: stale handle")

// ErrCyclicDependency is matched by every *CyclicDependencyError.
var ErrCyclicDependency = errors.New("reactive: cyclic dependency")

// ErrScopeDisposed is returned when running code in a disposed scope.
var ErrScopeDisposed = errors.New("reactive: scope disposed")

// ErrBudgetExceeded is returned when a flush exceeds the runtime's Budget.
// This usually means effects keep writing signals that re-trigger them.
var ErrBudgetExceeded = errors.New("reactive: propagation budget exceeded")

// StaleHandleError reports a dereference of a disposed or foreign handle.
type StaleHandleError struct {
	Handle Handle
	// Foreign is set when the handle was minted by another runtime.
	Foreign bool
}

// Error implements the error interface.
func (e *StaleHandleError) Error() string {
	if e.Foreign {
		return fmt.Sprintf("reactive: handle %s belongs to another runtime", e.Handle)
	}
	return fmt.Sprintf("reactive: handle %s refers to a disposed node", e.Handle)
}

// Unwrap returns ErrStaleHandle for errors.Is support.
func (e *StaleHandleError) Unwrap() error {
	return ErrStaleHandle
}

// CyclicDependencyError reports a read of a node that is already being
// evaluated higher on the evaluation stack.
type CyclicDependencyError struct {
	// Path lists the evaluating nodes from the re-entered node to the
	// reader, followed by the re-entered node again.
	Path []NodeRef
}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Path))
	for i, r := range e.Path {
		parts[i] = r.String()
	}
	return "reactive: cyclic dependency: " + strings.Join(parts, " -> ")
}

// Unwrap returns ErrCyclicDependency for errors.Is support.
func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicDependency
}

// MemoError reports a failed memo derivation. The memo keeps its previous
// value and its subscribers are not run in the pass that saw the failure.
type MemoError struct {
	Memo  NodeRef
	Cause error
}

// Error implements the error interface.
func (e *MemoError) Error() string {
	return fmt.Sprintf("reactive: memo %s failed: %v", e.Memo, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *MemoError) Unwrap() error {
	return e.Cause
}

// EffectError reports a failed effect run. Sibling effects in the same pass
// still run.
type EffectError struct {
	Effect NodeRef
	Cause  error
}

// Error implements the error interface.
func (e *EffectError) Error() string {
	return fmt.Sprintf("reactive: effect %s failed: %v", e.Effect, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *EffectError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a non-error value recovered from a panicking closure.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// recoveredError turns a recovered panic value into an error.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{Value: r}
}
