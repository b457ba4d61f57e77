package authz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cedar-policy/cedar-go"
)

// Ref identifies a principal, action, or resource. Callers supply it either
// as the pre-formatted Cedar string form (RefString(`User::"alice"`)) or as a
// structured type/id pair (NewRef("User", "alice")); both normalize to the
// same entity reference.
type Ref struct {
	text       string
	typ        string
	id         string
	structured bool
	set        bool
}

// RefString wraps a typed-reference string of the form Type::"id".
// Namespaced types (Ns::Type::"id") are accepted.
func RefString(s string) Ref {
	return Ref{text: s, set: true}
}

// NewRef builds a reference from a separate type name and identifier.
func NewRef(entityType, id string) Ref {
	return Ref{typ: entityType, id: id, structured: true, set: true}
}

// normalize resolves the reference to an entity UID, reporting failures
// against the named request field.
func (r Ref) normalize(field string) (cedar.EntityUID, error) {
	if !r.set {
		return cedar.EntityUID{}, &MalformedInputError{Field: field, Reason: "reference is required"}
	}
	if r.structured {
		if r.typ == "" {
			return cedar.EntityUID{}, &MalformedInputError{Field: field, Reason: "entity type must not be empty"}
		}
		if !validEntityTypePath(r.typ) {
			return cedar.EntityUID{}, &MalformedInputError{
				Field:  field,
				Reason: fmt.Sprintf("%q is not a valid entity type", r.typ),
			}
		}
		return cedar.NewEntityUID(cedar.EntityType(r.typ), cedar.String(r.id)), nil
	}
	uid, err := parseEntityRef(r.text)
	if err != nil {
		return cedar.EntityUID{}, &MalformedInputError{Field: field, Reason: err.Error()}
	}
	return uid, nil
}

// parseEntityRef parses the Type::"id" string form. The identifier must be a
// double-quoted string; the type may be namespaced with :: separators. Type
// segments can never contain a quote, so the first ::" is the boundary even
// when the id itself contains one.
func parseEntityRef(s string) (cedar.EntityUID, error) {
	i := strings.Index(s, `::"`)
	if i <= 0 {
		return cedar.EntityUID{}, fmt.Errorf(`%q does not match Type::"id"`, s)
	}
	typ := s[:i]
	if !validEntityTypePath(typ) {
		return cedar.EntityUID{}, fmt.Errorf("%q is not a valid entity type", typ)
	}
	id, err := unquoteCedarString(s[i+2:])
	if err != nil {
		return cedar.EntityUID{}, fmt.Errorf("invalid identifier in %q: %v", s, err)
	}
	return cedar.NewEntityUID(cedar.EntityType(typ), cedar.String(id)), nil
}

// validEntityTypePath checks a possibly-namespaced type name: identifier
// segments separated by ::.
func validEntityTypePath(s string) bool {
	for _, seg := range strings.Split(s, "::") {
		if !validIdent(seg) {
			return false
		}
	}
	return true
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// unquoteCedarString unquotes a double-quoted Cedar string literal.
func unquoteCedarString(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("identifier must be a double-quoted string")
	}
	body := s[1 : len(s)-1]
	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '"' {
			return "", fmt.Errorf("unescaped quote in identifier")
		}
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("trailing backslash in identifier")
		}
		switch body[i] {
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		case '\'':
			out.WriteByte('\'')
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '0':
			out.WriteByte(0)
		default:
			return "", fmt.Errorf("unsupported escape \\%c", body[i])
		}
	}
	return out.String(), nil
}

// ContextSource carries request context in one of its accepted encodings.
// ContextMap and ContextJSON must normalize to the same record for
// equivalent input.
type ContextSource interface {
	normalizeContext() (cedar.Record, error)
}

// ContextMap is a context supplied as an attribute mapping.
type ContextMap map[string]any

func (c ContextMap) normalizeContext() (cedar.Record, error) {
	return recordFromMap("context", c)
}

// ContextJSON is a context supplied as the JSON encoding of an attribute
// mapping.
type ContextJSON string

func (c ContextJSON) normalizeContext() (cedar.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(c)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return cedar.Record{}, &MalformedInputError{
			Field:  "context",
			Reason: "invalid JSON: " + err.Error(),
		}
	}
	return recordFromMap("context", m)
}

// Request is a single authorization question: who (principal) may do what
// (action) to which target (resource), under an optional context. The
// correlation ID is opaque to this layer and is echoed unchanged on the
// corresponding result.
type Request struct {
	Principal Ref
	Action    Ref
	Resource  Ref

	// Context is optional; nil normalizes to an empty record.
	Context ContextSource

	// CorrelationID is a caller-defined tag for re-associating batch
	// results with their originating requests.
	CorrelationID string
}

// normalizeRequest converts a Request into the engine's representation. Any
// failure is attributable to a single request field.
func normalizeRequest(req Request) (cedar.Request, error) {
	principal, err := req.Principal.normalize("principal")
	if err != nil {
		return cedar.Request{}, err
	}
	action, err := req.Action.normalize("action")
	if err != nil {
		return cedar.Request{}, err
	}
	resource, err := req.Resource.normalize("resource")
	if err != nil {
		return cedar.Request{}, err
	}

	ctx := cedar.NewRecord(cedar.RecordMap{})
	if req.Context != nil {
		ctx, err = req.Context.normalizeContext()
		if err != nil {
			return cedar.Request{}, err
		}
	}

	return cedar.Request{
		Principal: principal,
		Action:    action,
		Resource:  resource,
		Context:   ctx,
	}, nil
}
