package authz

import (
	"slices"
	"strings"

	internalast "github.com/cedar-policy/cedar-go/x/exp/ast"
	"github.com/cedar-policy/cedar-go/x/exp/schema/validate"
)

// ValidationError is one finding from policy validation.
type ValidationError struct {
	// PolicyID identifies the offending policy where the finding is
	// attributable to one; it is empty for schema- or parse-level findings.
	PolicyID string `json:"policy_id"`
	Message  string `json:"error"`
}

func (e ValidationError) String() string {
	if e.PolicyID == "" {
		return e.Message
	}
	return e.PolicyID + ": " + e.Message
}

// ValidationResult reports whether a policy set validates against a schema,
// with every finding detected in one pass: validation never stops at the
// first error, so callers can fix all issues at once.
type ValidationResult struct {
	passed bool
	errors []ValidationError
}

// Passed reports whether validation found no errors. This is the boolean
// truthiness of the result.
func (r ValidationResult) Passed() bool { return r.passed }

// Errors returns the findings in the validator's reporting order.
func (r ValidationResult) Errors() []ValidationError { return slices.Clone(r.errors) }

func failedValidation(errs ...ValidationError) ValidationResult {
	return ValidationResult{passed: false, errors: errs}
}

// ValidatePolicies checks a policy set against a schema. Both arguments are
// required: a missing schema is a MissingArgumentError, never an empty-pass
// result. Parse failures of either input are reported inside the returned
// ValidationResult rather than raised, so a caller sees every problem the
// same way.
func (a *Authorizer) ValidatePolicies(policies PolicySource, schema SchemaSource) (ValidationResult, error) {
	if policies == nil {
		return ValidationResult{}, &MissingArgumentError{Arg: "policies"}
	}
	if schema == nil || isEmptySchema(schema) {
		return ValidationResult{}, &MissingArgumentError{Arg: "schema"}
	}

	ps, err := policies.normalizePolicies()
	if err != nil {
		return failedValidation(ValidationError{Message: "Policy parse error: " + err.Error()}), nil
	}
	sc, err := schema.normalizeSchema()
	if err != nil {
		return failedValidation(ValidationError{Message: "Schema parse error: " + err.Error()}), nil
	}

	// Policies are validated one at a time, in stable id order, so every
	// finding is attributable to its policy.
	v := validate.New(sc.resolved)
	var findings []ValidationError
	for _, entry := range policiesInOrder(ps) {
		err := v.Policy(string(entry.id), (*internalast.Policy)(entry.policy.AST()))
		if err == nil {
			continue
		}
		for _, e := range joinedErrors(err) {
			findings = append(findings, ValidationError{
				PolicyID: string(entry.id),
				Message:  e.Error(),
			})
		}
	}

	a.logger.Debug("policy validation complete",
		"passed", len(findings) == 0,
		"findings", len(findings),
	)
	return ValidationResult{passed: len(findings) == 0, errors: findings}, nil
}

// joinedErrors flattens an aggregate error into its individual findings, so
// one policy with several problems yields several entries.
func joinedErrors(err error) []error {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range u.Unwrap() {
			out = append(out, joinedErrors(e)...)
		}
		return out
	}
	return []error{err}
}

// isEmptySchema catches blank schema encodings, which count as missing.
func isEmptySchema(schema SchemaSource) bool {
	switch s := schema.(type) {
	case SchemaJSON:
		return strings.TrimSpace(string(s)) == ""
	case SchemaCedar:
		return strings.TrimSpace(string(s)) == ""
	case SchemaMap:
		return len(s) == 0
	default:
		return false
	}
}
