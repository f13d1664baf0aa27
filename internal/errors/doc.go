// Package errors provides structured, actionable diagnostics for the reactor
// tooling.
//
// Runtime failures surface from package reactive as typed errors
// (*reactive.CyclicDependencyError, *reactive.StaleHandleError, ...). This
// package maps them onto stable codes with a plain-language explanation and
// a fix suggestion, for the CLI and the devtools server.
//
// # Error Categories
//
// Errors are organized into categories:
//   - runtime: failures raised by a reactive runtime
//   - config: invalid or unreadable configuration files
//   - cli: command-line usage errors
//   - report: benchmark report output and upload failures
//
// # Error Codes
//
// Each error has a unique code (e.g., "R002") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.FromError(flushErr)
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R002: Cyclic dependency
//	//
//	//   A memo read a value that, directly or through other memos, depends
//	//   on the memo itself.
//	//
//	//   Path: total -> subtotal -> total
//	//
//	//   Hint: Break the loop with Peek or Untracked for the back edge
package errors
