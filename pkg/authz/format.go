package authz

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/cedar-policy/cedar-go"
)

// FormatPolicies pretty-prints Cedar policy text into the engine's canonical
// form. It is a pass-through to the evaluator's formatter: parse, then
// re-emit. Formatting is idempotent, and the canonical form round-trips
// without semantic change. Unparsable input is a PolicySyntaxError.
func FormatPolicies(text string) (string, error) {
	ps, err := PolicyText(text).normalizePolicies()
	if err != nil {
		return "", err
	}

	parts := make([]string, 0)
	for _, entry := range policiesInOrder(ps) {
		parts = append(parts, strings.TrimRight(string(entry.policy.MarshalCedar()), "\n"))
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

// PoliciesToJSON converts Cedar policy text to the JSON policy format, one
// JSON object per policy keyed by its stable positional id.
func PoliciesToJSON(text string) (string, error) {
	ps, err := PolicyText(text).normalizePolicies()
	if err != nil {
		return "", err
	}

	static := map[string]json.RawMessage{}
	for _, entry := range policiesInOrder(ps) {
		b, err := entry.policy.MarshalJSON()
		if err != nil {
			return "", err
		}
		static[string(entry.id)] = b
	}
	out, err := json.Marshal(map[string]any{"staticPolicies": static})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// PoliciesFromJSON converts the JSON policy format produced by
// PoliciesToJSON back to canonical Cedar policy text.
func PoliciesFromJSON(text string) (string, error) {
	var doc struct {
		StaticPolicies map[string]json.RawMessage `json:"staticPolicies"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return "", &MalformedInputError{Field: "policies", Reason: "invalid JSON: " + err.Error()}
	}

	ids := make([]string, 0, len(doc.StaticPolicies))
	for id := range doc.StaticPolicies {
		ids = append(ids, id)
	}
	sortPolicyIDs(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		var p cedar.Policy
		if err := p.UnmarshalJSON(doc.StaticPolicies[id]); err != nil {
			return "", &PolicySyntaxError{Err: err}
		}
		parts = append(parts, strings.TrimRight(string(p.MarshalCedar()), "\n"))
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

type policyEntry struct {
	id     cedar.PolicyID
	policy *cedar.Policy
}

// policiesInOrder returns the set's policies sorted by id, numeric suffixes
// compared numerically so policy10 sorts after policy9.
func policiesInOrder(ps *cedar.PolicySet) []policyEntry {
	var entries []policyEntry
	for id, p := range ps.All() {
		entries = append(entries, policyEntry{id: id, policy: p})
	}
	sort.Slice(entries, func(i, j int) bool {
		return policyIDLess(string(entries[i].id), string(entries[j].id))
	})
	return entries
}

func sortPolicyIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return policyIDLess(ids[i], ids[j]) })
}

func policyIDLess(a, b string) bool {
	pa, na := splitNumericSuffix(a)
	pb, nb := splitNumericSuffix(b)
	if pa != pb || na < 0 || nb < 0 {
		return a < b
	}
	return na < nb
}

func splitNumericSuffix(s string) (prefix string, n int) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, -1
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}
