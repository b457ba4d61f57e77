package authz

import (
	"encoding/json"

	"github.com/cedar-policy/cedar-go"
	cedarschema "github.com/cedar-policy/cedar-go/x/exp/schema"
	"github.com/cedar-policy/cedar-go/x/exp/schema/resolved"
)

// SchemaSource carries a schema in one of its accepted encodings: the JSON
// schema form, an equivalent structured mapping, or Cedar-native schema
// text. All variants normalize to one internal representation before
// reaching the validator or the evaluator.
type SchemaSource interface {
	normalizeSchema() (*schemaContext, error)
}

// schemaContext is the canonical internal schema representation: the parsed
// schema with type references resolved and declarations indexed.
type schemaContext struct {
	resolved *resolved.Schema
}

// SchemaJSON is a schema supplied in the Cedar JSON schema format.
type SchemaJSON string

func (s SchemaJSON) normalizeSchema() (*schemaContext, error) {
	var parsed cedarschema.Schema
	if err := parsed.UnmarshalJSON([]byte(s)); err != nil {
		return nil, &MalformedInputError{Field: "schema", Reason: err.Error()}
	}
	return resolveSchema(&parsed)
}

// SchemaMap is a schema supplied as a structured mapping equivalent to the
// JSON schema format.
type SchemaMap map[string]any

func (s SchemaMap) normalizeSchema() (*schemaContext, error) {
	b, err := json.Marshal(map[string]any(s))
	if err != nil {
		return nil, &MalformedInputError{Field: "schema", Reason: err.Error()}
	}
	return SchemaJSON(b).normalizeSchema()
}

// SchemaCedar is a schema supplied as Cedar-native schema text. It is parsed
// by the engine's own schema parser, so both encodings converge on the same
// resolved representation.
type SchemaCedar string

func (s SchemaCedar) normalizeSchema() (*schemaContext, error) {
	var parsed cedarschema.Schema
	parsed.SetFilename("schema.cedarschema")
	if err := parsed.UnmarshalCedar([]byte(s)); err != nil {
		return nil, &MalformedInputError{Field: "schema", Reason: err.Error()}
	}
	return resolveSchema(&parsed)
}

func resolveSchema(parsed *cedarschema.Schema) (*schemaContext, error) {
	r, err := parsed.Resolve()
	if err != nil {
		return nil, &MalformedInputError{Field: "schema", Reason: err.Error()}
	}
	return &schemaContext{resolved: r}, nil
}

// actionEntities returns the Action entities the schema declares, including
// action-group membership, so `action in` hierarchies evaluate without the
// caller enumerating them in the entity graph.
func (c *schemaContext) actionEntities() []cedar.Entity {
	if c == nil {
		return nil
	}
	out := make([]cedar.Entity, 0, len(c.resolved.Actions))
	for _, act := range c.resolved.Actions {
		out = append(out, cedar.Entity{
			UID:        act.Entity.UID,
			Parents:    act.Entity.Parents,
			Attributes: cedar.NewRecord(cedar.RecordMap{}),
		})
	}
	return out
}

// mergeActionEntities appends schema-declared action entities into the
// graph. Caller-supplied entities win on id collision.
func mergeActionEntities(entities cedar.EntityMap, sc *schemaContext) {
	for _, ent := range sc.actionEntities() {
		if _, exists := entities[ent.UID]; !exists {
			entities[ent.UID] = ent
		}
	}
}
