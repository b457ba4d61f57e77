package authz

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cedar-policy/cedar-go"
)

// UID is a typed entity identifier in structured form.
type UID struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// EntityRecord is one entry in an entity graph: a unique id, an attribute
// mapping, and the ids of the entities it is a direct member of. Parents
// need not resolve to entities present in the same graph; unresolved parents
// are the evaluator's concern.
type EntityRecord struct {
	UID     UID            `json:"uid"`
	Attrs   map[string]any `json:"attrs"`
	Parents []UID          `json:"parents"`
}

// EntitySource carries an entity graph in one of its accepted encodings.
// EntityRecords and EntityJSON must normalize to identical entity maps for
// equivalent input.
type EntitySource interface {
	normalizeEntities() (cedar.EntityMap, error)
}

// EntityRecords is an entity graph supplied as structured records.
type EntityRecords []EntityRecord

func (e EntityRecords) normalizeEntities() (cedar.EntityMap, error) {
	entities := cedar.EntityMap{}
	for i, rec := range e {
		if err := addEntity(entities, rec, fmt.Sprintf("entities[%d]", i)); err != nil {
			return nil, err
		}
	}
	return entities, nil
}

// EntityJSON is an entity graph supplied as the JSON encoding of a sequence
// of {uid, attrs, parents} records. All three keys are required on every
// record; a missing parents key is an error, not an empty set.
type EntityJSON string

func (e EntityJSON) normalizeEntities() (cedar.EntityMap, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(e)))
	dec.UseNumber()
	var raw []map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, &MalformedInputError{Field: "entities", Reason: "invalid JSON: " + err.Error()}
	}

	entities := cedar.EntityMap{}
	for i, obj := range raw {
		field := fmt.Sprintf("entities[%d]", i)
		rec, err := decodeEntityRecord(obj, field)
		if err != nil {
			return nil, err
		}
		if err := addEntity(entities, rec, field); err != nil {
			return nil, err
		}
	}
	return entities, nil
}

// decodeEntityRecord decodes one JSON entity object, requiring the uid,
// attrs, and parents keys to be present and non-null. An explicit null is
// rejected rather than coerced to an empty value.
func decodeEntityRecord(obj map[string]json.RawMessage, field string) (EntityRecord, error) {
	var rec EntityRecord
	for _, key := range []string{"uid", "attrs", "parents"} {
		raw, ok := obj[key]
		if !ok {
			return rec, &MalformedInputError{Field: field, Reason: "missing required key " + key}
		}
		if string(bytes.TrimSpace(raw)) == "null" {
			return rec, &MalformedInputError{Field: field + "." + key, Reason: "must not be null"}
		}
	}

	if err := json.Unmarshal(obj["uid"], &rec.UID); err != nil {
		return rec, &MalformedInputError{Field: field + ".uid", Reason: err.Error()}
	}
	if err := decodeWithNumbers(obj["attrs"], &rec.Attrs); err != nil {
		return rec, &MalformedInputError{Field: field + ".attrs", Reason: err.Error()}
	}
	if err := json.Unmarshal(obj["parents"], &rec.Parents); err != nil {
		return rec, &MalformedInputError{Field: field + ".parents", Reason: err.Error()}
	}
	return rec, nil
}

func decodeWithNumbers(raw json.RawMessage, dst *map[string]any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(dst)
}

// addEntity converts one record into a Cedar entity and inserts it,
// rejecting duplicate ids within the graph.
func addEntity(entities cedar.EntityMap, rec EntityRecord, field string) error {
	if rec.UID.Type == "" {
		return &MalformedInputError{Field: field + ".uid", Reason: "entity type must not be empty"}
	}
	if !validEntityTypePath(rec.UID.Type) {
		return &MalformedInputError{
			Field:  field + ".uid",
			Reason: fmt.Sprintf("%q is not a valid entity type", rec.UID.Type),
		}
	}

	uid := cedar.NewEntityUID(cedar.EntityType(rec.UID.Type), cedar.String(rec.UID.ID))
	if _, exists := entities[uid]; exists {
		return &MalformedInputError{
			Field:  field + ".uid",
			Reason: fmt.Sprintf("duplicate entity id %s::%q", rec.UID.Type, rec.UID.ID),
		}
	}

	attrs, err := recordFromMap(field+".attrs", rec.Attrs)
	if err != nil {
		return err
	}

	parents := make([]cedar.EntityUID, 0, len(rec.Parents))
	for j, p := range rec.Parents {
		if p.Type == "" || !validEntityTypePath(p.Type) {
			return &MalformedInputError{
				Field:  fmt.Sprintf("%s.parents[%d]", field, j),
				Reason: fmt.Sprintf("%q is not a valid entity type", p.Type),
			}
		}
		parents = append(parents, cedar.NewEntityUID(cedar.EntityType(p.Type), cedar.String(p.ID)))
	}

	entities[uid] = cedar.Entity{
		UID:        uid,
		Parents:    cedar.NewEntityUIDSet(parents...),
		Attributes: attrs,
	}
	return nil
}

// normalizeEntitySource handles the optional entities argument; nil means an
// empty graph.
func normalizeEntitySource(src EntitySource) (cedar.EntityMap, error) {
	if src == nil {
		return cedar.EntityMap{}, nil
	}
	return src.normalizeEntities()
}
