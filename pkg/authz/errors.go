package authz

import (
	"errors"
	"fmt"
)

// MalformedInputError reports caller input that does not parse into the
// canonical shape: bad JSON, a missing required field, or a typed-reference
// string that is not of the form Type::"id". It is always attributable to a
// single field and is never silently corrected.
type MalformedInputError struct {
	// Field names the offending input, e.g. "principal" or "entities[2].uid".
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input %q: %s", e.Field, e.Reason)
}

// PolicySyntaxError reports policy text the Cedar parser rejected. The
// parser's own error, including any source location it supplies, is wrapped
// unchanged.
type PolicySyntaxError struct {
	Err error
}

func (e *PolicySyntaxError) Error() string {
	return "policy syntax error: " + e.Err.Error()
}

func (e *PolicySyntaxError) Unwrap() error { return e.Err }

// MissingArgumentError reports a required argument that was omitted, such as
// the schema for policy validation.
type MissingArgumentError struct {
	Arg string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument %q", e.Arg)
}

// SharedContextError reports that input shared across an entire batch
// (policies, entities, or schema) failed to normalize. It is fatal to the
// batch and is returned before any per-request result is produced.
type SharedContextError struct {
	// Stage is "policies", "entities", or "schema".
	Stage string
	Err   error
}

func (e *SharedContextError) Error() string {
	return fmt.Sprintf("shared %s failed to normalize: %v", e.Stage, e.Err)
}

func (e *SharedContextError) Unwrap() error { return e.Err }

// IsInputError reports whether err is attributable to caller input rather
// than the evaluation itself.
func IsInputError(err error) bool {
	var malformed *MalformedInputError
	var syntax *PolicySyntaxError
	var missing *MissingArgumentError
	return errors.As(err, &malformed) || errors.As(err, &syntax) || errors.As(err, &missing)
}
