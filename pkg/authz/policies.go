package authz

import (
	"github.com/cedar-policy/cedar-go"
)

// PolicySource carries a policy set either as raw Cedar text or as an
// already-parsed set (pass-through).
type PolicySource interface {
	normalizePolicies() (*cedar.PolicySet, error)
}

// PolicyText is a policy set supplied as raw Cedar policy text. Policies are
// assigned stable positional ids (policy0, policy1, ...) used in diagnostics.
type PolicyText string

func (p PolicyText) normalizePolicies() (*cedar.PolicySet, error) {
	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", []byte(p))
	if err != nil {
		return nil, &PolicySyntaxError{Err: err}
	}
	return ps, nil
}

type policySetSource struct {
	ps *cedar.PolicySet
}

func (p policySetSource) normalizePolicies() (*cedar.PolicySet, error) {
	return p.ps, nil
}

// FromPolicySet wraps an already-parsed policy set for use as a
// PolicySource. The set is used as-is.
func FromPolicySet(ps *cedar.PolicySet) PolicySource {
	return policySetSource{ps: ps}
}

func normalizePolicySource(src PolicySource) (*cedar.PolicySet, error) {
	if src == nil {
		return nil, &MissingArgumentError{Arg: "policies"}
	}
	return src.normalizePolicies()
}
