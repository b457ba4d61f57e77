// Package clierror provides structured errors for CLI output with codes,
// exit codes, and remediation hints.
package clierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/k9securityio/cedargate/pkg/authz"
)

// Exit codes for the cedargate CLI.
const (
	ExitSuccess          = 0 // Operation completed successfully
	ExitGeneral          = 1 // Unknown/unhandled error
	ExitInvalidInput     = 2 // Malformed request, entity, or context input
	ExitPolicySyntax     = 3 // Unparsable policy or schema text
	ExitValidationFailed = 4 // Policies failed schema validation
	ExitNotCanonical     = 5 // Input is not in canonical form (format --check)
)

// Error codes (strings) for programmatic error handling
const (
	CodeGeneral          = "ERROR"
	CodeMalformedInput   = "MALFORMED_INPUT"
	CodeMissingArgument  = "MISSING_ARGUMENT"
	CodePolicySyntax     = "POLICY_SYNTAX"
	CodeSharedContext    = "SHARED_CONTEXT"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotCanonical     = "NOT_CANONICAL"
)

// CLIError represents a structured error for CLI output.
type CLIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Hint      string `json:"hint,omitempty"`
	Retryable bool   `json:"retryable"`
	ExitCode  int    `json:"-"` // Not serialized, used for os.Exit
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// MalformedInput creates an error for a request field that failed to
// normalize.
func MalformedInput(field, reason string) *CLIError {
	return &CLIError{
		Code:      CodeMalformedInput,
		Message:   fmt.Sprintf("malformed input in %s: %s", field, reason),
		Hint:      "Check the named field against the request file format",
		Retryable: false,
		ExitCode:  ExitInvalidInput,
	}
}

// MissingArgument creates an error for a required input that was not given.
func MissingArgument(arg string) *CLIError {
	return &CLIError{
		Code:      CodeMissingArgument,
		Message:   fmt.Sprintf("missing required argument: %s", arg),
		Hint:      fmt.Sprintf("Supply --%s with a non-empty file", arg),
		Retryable: false,
		ExitCode:  ExitInvalidInput,
	}
}

// PolicySyntax creates an error for Cedar text that does not parse.
func PolicySyntax(err error) *CLIError {
	return &CLIError{
		Code:      CodePolicySyntax,
		Message:   fmt.Sprintf("policy syntax error: %s", err.Error()),
		Hint:      "Fix the policy text; the parser error names the offending token",
		Retryable: false,
		ExitCode:  ExitPolicySyntax,
	}
}

// SharedContext creates an error for a shared batch input (policies, schema,
// entities) that failed to normalize.
func SharedContext(stage string, err error) *CLIError {
	return &CLIError{
		Code:      CodeSharedContext,
		Message:   fmt.Sprintf("failed to load %s: %s", stage, err.Error()),
		Hint:      fmt.Sprintf("No requests were evaluated; fix the %s file and rerun", stage),
		Retryable: false,
		ExitCode:  ExitPolicySyntax,
	}
}

// ValidationFailed creates an error summarizing schema validation findings.
func ValidationFailed(findings int) *CLIError {
	return &CLIError{
		Code:      CodeValidationFailed,
		Message:   fmt.Sprintf("validation failed with %d finding(s)", findings),
		Hint:      "Each finding above names the policy id it belongs to",
		Retryable: false,
		ExitCode:  ExitValidationFailed,
	}
}

// NotCanonical creates an error for format --check on non-canonical input.
func NotCanonical(source string) *CLIError {
	if source == "" || source == "-" {
		source = "input"
	}
	return &CLIError{
		Code:      CodeNotCanonical,
		Message:   fmt.Sprintf("%s is not in canonical form", source),
		Hint:      "Run 'cedargate format --write' to rewrite the file",
		Retryable: false,
		ExitCode:  ExitNotCanonical,
	}
}

// FromError maps any error to a CLIError, translating the authorization
// library's typed errors to their exit codes. Unknown errors map to
// ExitGeneral with the error text as the message.
func FromError(err error) *CLIError {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var shared *authz.SharedContextError
	if errors.As(err, &shared) {
		return SharedContext(shared.Stage, shared.Err)
	}
	var malformed *authz.MalformedInputError
	if errors.As(err, &malformed) {
		return MalformedInput(malformed.Field, malformed.Reason)
	}
	var missing *authz.MissingArgumentError
	if errors.As(err, &missing) {
		return MissingArgument(missing.Arg)
	}
	var syntax *authz.PolicySyntaxError
	if errors.As(err, &syntax) {
		return PolicySyntax(syntax.Err)
	}

	return &CLIError{
		Code:      CodeGeneral,
		Message:   err.Error(),
		Retryable: false,
		ExitCode:  ExitGeneral,
	}
}

// FormatError returns the error formatted for the given output format.
// Supported formats: "json" for JSON output, anything else for human-readable format.
func FormatError(err *CLIError, outputFormat string) string {
	if outputFormat == "json" {
		data, jsonErr := json.MarshalIndent(err, "", "  ")
		if jsonErr != nil {
			// Fallback to simple JSON if marshaling fails
			return fmt.Sprintf(`{"code":"%s","message":"%s"}`, err.Code, err.Message)
		}
		return string(data)
	}

	output := fmt.Sprintf("Error [%s]: %s", err.Code, err.Message)
	if err.Hint != "" {
		output += fmt.Sprintf("\nHint: %s", err.Hint)
	}
	return output
}

// PrintError prints the error to stderr in the appropriate format.
func PrintError(err *CLIError, outputFormat string) {
	fmt.Fprintln(os.Stderr, FormatError(err, outputFormat))
}
