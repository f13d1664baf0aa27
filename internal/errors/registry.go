package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (R000-R099)
	// ============================================

	"R000": {
		Category: CategoryRuntime,
		Message:  "Unclassified failure",
		Detail:   "The error did not come from the reactive runtime's own checks.",
		DocURL:   "https://reactor.vango.dev/docs/errors/R000",
	},
	"R001": {
		Category:   CategoryRuntime,
		Message:    "Stale handle",
		Detail:     "The node behind this handle has been disposed, usually because its scope was disposed. Its arena slot may already hold a newer node.",
		Suggestion: "Check IsLive before using handles that can outlive their scope",
		DocURL:     "https://reactor.vango.dev/docs/errors/R001",
	},
	"R002": {
		Category:   CategoryRuntime,
		Message:    "Cyclic dependency",
		Detail:     "A memo read a value that, directly or through other memos, depends on the memo itself.",
		Suggestion: "Break the loop with Peek or Untracked for the back edge",
		DocURL:     "https://reactor.vango.dev/docs/errors/R002",
	},
	"R003": {
		Category:   CategoryRuntime,
		Message:    "Effect failed",
		Detail:     "An effect or its cleanup panicked. Other effects in the same pass still ran.",
		Suggestion: "Recover inside the effect if the failure is expected",
		DocURL:     "https://reactor.vango.dev/docs/errors/R003",
	},
	"R004": {
		Category:   CategoryRuntime,
		Message:    "Memo failed",
		Detail:     "A memo derivation panicked. The memo kept its previous value and its subscribers were not run in that pass.",
		Suggestion: "Return a sentinel value instead of panicking for expected bad input",
		DocURL:     "https://reactor.vango.dev/docs/errors/R004",
	},
	"R005": {
		Category:   CategoryRuntime,
		Message:    "Propagation budget exceeded",
		Detail:     "A flush ran more passes, or a pass ran more effects, than the runtime's budget allows. This usually means effects keep writing signals that re-trigger them.",
		Suggestion: "Compare before writing from an effect, or raise the budget with WithBudget",
		DocURL:     "https://reactor.vango.dev/docs/errors/R005",
	},
	"R006": {
		Category:   CategoryRuntime,
		Message:    "Scope disposed",
		Detail:     "Code was run in a scope that has already been disposed.",
		DocURL:     "https://reactor.vango.dev/docs/errors/R006",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Message:  "Config file not readable",
		Detail:   "The configuration file exists but could not be read.",
		DocURL:   "https://reactor.vango.dev/docs/errors/C001",
	},
	"C002": {
		Category:   CategoryConfig,
		Message:    "Invalid config syntax",
		Detail:     "The configuration file could not be parsed as YAML or JSON.",
		Suggestion: "Validate the file with a YAML or JSON linter",
		DocURL:     "https://reactor.vango.dev/docs/errors/C002",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A configuration value is out of range or not recognized.",
		DocURL:   "https://reactor.vango.dev/docs/errors/C003",
	},

	// ============================================
	// CLI Errors (X001-X099)
	// ============================================

	"X001": {
		Category: CategoryCLI,
		Message:  "Unknown workload",
		Detail:   "The requested benchmark workload does not exist.",
		DocURL:   "https://reactor.vango.dev/docs/errors/X001",
	},
	"X002": {
		Category: CategoryCLI,
		Message:  "Unknown error code",
		Detail:   "The code passed to explain is not registered.",
		DocURL:   "https://reactor.vango.dev/docs/errors/X002",
	},
	"X003": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The devtools server stopped with an error.",
		DocURL:   "https://reactor.vango.dev/docs/errors/X003",
	},

	// ============================================
	// Report Errors (P001-P099)
	// ============================================

	"P001": {
		Category: CategoryReport,
		Message:  "Report write failed",
		Detail:   "The benchmark report could not be encoded or written.",
		DocURL:   "https://reactor.vango.dev/docs/errors/P001",
	},
	"P002": {
		Category:   CategoryReport,
		Message:    "Report upload failed",
		Detail:     "The benchmark report could not be uploaded to object storage.",
		Suggestion: "Check the bucket name, region and AWS credentials",
		DocURL:     "https://reactor.vango.dev/docs/errors/P002",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
