package authz

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/cedar-policy/cedar-go"
)

// Decision is the binary authorization outcome.
type Decision string

const (
	Allow Decision = "Allow"
	Deny  Decision = "Deny"
)

// DiagnosticError is a non-fatal, per-policy evaluation error captured in a
// result's diagnostics. One faulty policy must not abort evaluation of the
// others, so these are data, never raised.
type DiagnosticError struct {
	PolicyID string `json:"policy_id"`
	Message  string `json:"error"`
}

// Diagnostics aggregates the determining policy ids and the per-policy
// evaluation errors of a result. The wire key for the ids is "reason"
// (singular), matching the evaluator's own serialized diagnostics.
type Diagnostics struct {
	Reasons []string          `json:"reason"`
	Errors  []DiagnosticError `json:"errors"`
}

// Result is an immutable authorization outcome: the decision, the policy ids
// that determined it, any per-policy evaluation errors, timing metrics, and
// the caller's correlation tag echoed unchanged.
//
// A Result built from a request that failed normalization carries
// Decision=Deny, the typed input error, and a diagnostic entry explaining
// the failure.
type Result struct {
	decision      Decision
	reasons       []string
	errors        []DiagnosticError
	correlationID string
	metrics       map[string]int64
	inputErr      error
}

// marshalResult wraps a raw engine decision and diagnostics into a Result.
// Diagnostic entries are preserved verbatim: no drops, no reordering, no
// deduplication.
func marshalResult(decision cedar.Decision, diag cedar.Diagnostic, correlationID string, metrics map[string]int64) Result {
	reasons := make([]string, 0, len(diag.Reasons))
	for _, r := range diag.Reasons {
		reasons = append(reasons, string(r.PolicyID))
	}
	errs := make([]DiagnosticError, 0, len(diag.Errors))
	for _, e := range diag.Errors {
		errs = append(errs, DiagnosticError{PolicyID: string(e.PolicyID), Message: e.Message})
	}

	d := Deny
	if decision == cedar.Allow {
		d = Allow
	}
	return Result{
		decision:      d,
		reasons:       reasons,
		errors:        errs,
		correlationID: correlationID,
		metrics:       metrics,
	}
}

// errorResult builds the per-slot result for a request that failed
// normalization. Sibling requests in the batch are unaffected.
func errorResult(err error, correlationID string, metrics map[string]int64) Result {
	return Result{
		decision:      Deny,
		errors:        []DiagnosticError{{Message: err.Error()}},
		correlationID: correlationID,
		metrics:       metrics,
		inputErr:      err,
	}
}

// Decision returns the authorization outcome.
func (r Result) Decision() Decision { return r.decision }

// Allowed reports whether the decision is Allow. This is the boolean
// truthiness of the result.
func (r Result) Allowed() bool { return r.decision == Allow }

// Reasons returns the ids of the policies that contributed to the decision,
// in the evaluator's reporting order.
func (r Result) Reasons() []string { return slices.Clone(r.reasons) }

// Errors returns the per-policy evaluation errors, in the evaluator's
// reporting order.
func (r Result) Errors() []DiagnosticError { return slices.Clone(r.errors) }

// Diagnostics returns the reasons and errors as one aggregate. Slices are
// never nil, so the aggregate serializes with both keys present.
func (r Result) Diagnostics() Diagnostics {
	reasons := r.Reasons()
	if reasons == nil {
		reasons = []string{}
	}
	errs := r.Errors()
	if errs == nil {
		errs = []DiagnosticError{}
	}
	return Diagnostics{Reasons: reasons, Errors: errs}
}

// CorrelationID returns the caller-supplied tag, or "" if none was given.
func (r Result) CorrelationID() string { return r.correlationID }

// Metrics returns timing measurements in microseconds, keyed the way the
// orchestrator records them (parse_policies_duration_micros,
// authz_duration_micros, ...).
func (r Result) Metrics() map[string]int64 { return maps.Clone(r.metrics) }

// InputError returns the normalization error when this slot's request was
// malformed, or nil for an evaluated request.
func (r Result) InputError() error { return r.inputErr }

// Get looks a logical field up by key. Keys mirror the named accessors:
// "decision", "allowed", "reasons", "errors", "diagnostics",
// "correlation_id", "metrics". Named and key-based access return identical
// values for the same field.
func (r Result) Get(key string) (any, bool) {
	switch key {
	case "decision":
		return r.Decision(), true
	case "allowed":
		return r.Allowed(), true
	case "reasons":
		return r.Reasons(), true
	case "errors":
		return r.Errors(), true
	case "diagnostics":
		return r.Diagnostics(), true
	case "correlation_id":
		return r.CorrelationID(), true
	case "metrics":
		return r.Metrics(), true
	default:
		return nil, false
	}
}

type resultJSON struct {
	Decision      Decision         `json:"decision"`
	Diagnostics   Diagnostics      `json:"diagnostics"`
	Metrics       map[string]int64 `json:"metrics,omitempty"`
	CorrelationID string           `json:"correlation_id,omitempty"`
}

// MarshalJSON renders the result in the evaluator-style response shape.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Decision:      r.decision,
		Diagnostics:   r.Diagnostics(),
		Metrics:       r.metrics,
		CorrelationID: r.correlationID,
	})
}
