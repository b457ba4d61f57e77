package authz

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeEntities_FormatInvariance(t *testing.T) {
	t.Parallel()
	t.Log("Testing: structured records and their JSON encoding produce identical entity maps")

	structured := EntityRecords{
		{
			UID:     UID{Type: "User", ID: "alice"},
			Attrs:   map[string]any{"age": 34, "tags": []any{"a", "b"}, "active": true},
			Parents: []UID{{Type: "Group", ID: "admins"}},
		},
		{UID: UID{Type: "Group", ID: "admins"}, Attrs: map[string]any{}, Parents: []UID{}},
	}
	encoded := EntityJSON(`[
		{"uid": {"type": "User", "id": "alice"},
		 "attrs": {"age": 34, "tags": ["a", "b"], "active": true},
		 "parents": [{"type": "Group", "id": "admins"}]},
		{"uid": {"type": "Group", "id": "admins"}, "attrs": {}, "parents": []}
	]`)

	fromRecords, err := structured.normalizeEntities()
	if err != nil {
		t.Fatalf("structured form: %v", err)
	}
	fromJSON, err := encoded.normalizeEntities()
	if err != nil {
		t.Fatalf("JSON form: %v", err)
	}

	if len(fromRecords) != len(fromJSON) {
		t.Fatalf("Entity counts differ: %d vs %d", len(fromRecords), len(fromJSON))
	}
	for uid, want := range fromRecords {
		got, ok := fromJSON[uid]
		if !ok {
			t.Errorf("JSON form missing entity %v", uid)
			continue
		}
		if diff := cmp.Diff(want.UID, got.UID); diff != "" {
			t.Errorf("UID mismatch for %v (-structured +json):\n%s", uid, diff)
		}
	}
}

func TestNormalizeEntities_MissingOrNullKeyIsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input EntityJSON
		field string
	}{
		{
			name:  "missing parents",
			input: EntityJSON(`[{"uid": {"type": "User", "id": "a"}, "attrs": {}}]`),
			field: "entities[0]",
		},
		{
			name:  "missing attrs",
			input: EntityJSON(`[{"uid": {"type": "User", "id": "a"}, "parents": []}]`),
			field: "entities[0]",
		},
		{
			name:  "missing uid",
			input: EntityJSON(`[{"attrs": {}, "parents": []}]`),
			field: "entities[0]",
		},
		{
			name:  "null parents",
			input: EntityJSON(`[{"uid": {"type": "User", "id": "a"}, "attrs": {}, "parents": null}]`),
			field: "entities[0].parents",
		},
		{
			name:  "null attrs",
			input: EntityJSON(`[{"uid": {"type": "User", "id": "a"}, "attrs": null, "parents": []}]`),
			field: "entities[0].attrs",
		},
		{
			name:  "null uid",
			input: EntityJSON(`[{"uid": null, "attrs": {}, "parents": []}]`),
			field: "entities[0].uid",
		},
		{
			name:  "not JSON",
			input: EntityJSON(`{ this is not json`),
			field: "entities",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.input.normalizeEntities()
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Fatalf("Expected MalformedInputError, got %v", err)
			}
			if malformed.Field != tt.field {
				t.Errorf("Expected field %q, got %q (reason: %s)", tt.field, malformed.Field, malformed.Reason)
			}
		})
	}
}

func TestNormalizeEntities_DuplicateUID(t *testing.T) {
	t.Parallel()
	t.Log("Testing: an entity id appearing twice in one graph is rejected")

	dup := EntityRecords{
		{UID: UID{Type: "User", ID: "a"}, Attrs: map[string]any{}, Parents: []UID{}},
		{UID: UID{Type: "User", ID: "a"}, Attrs: map[string]any{}, Parents: []UID{}},
	}
	_, err := dup.normalizeEntities()
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedInputError, got %v", err)
	}
	if !strings.Contains(malformed.Reason, "duplicate") {
		t.Errorf("Expected duplicate-id reason, got %q", malformed.Reason)
	}
}

func TestNormalizeEntities_UnrepresentableValue(t *testing.T) {
	t.Parallel()
	t.Log("Testing: a non-integral number in attrs fails with the offending field named")

	bad := EntityRecords{
		{UID: UID{Type: "User", ID: "a"}, Attrs: map[string]any{"score": 1.5}, Parents: []UID{}},
	}
	_, err := bad.normalizeEntities()
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedInputError, got %v", err)
	}
	if malformed.Field != "entities[0].attrs.score" {
		t.Errorf("Expected field entities[0].attrs.score, got %q", malformed.Field)
	}
}

func TestNormalizeEntities_EntityEscapeAttribute(t *testing.T) {
	t.Parallel()
	t.Log("Testing: the __entity escape converts to a typed entity reference attribute")

	records := EntityRecords{
		{
			UID:     UID{Type: "Photo", ID: "p1"},
			Attrs:   map[string]any{"owner": map[string]any{"__entity": map[string]any{"type": "User", "id": "alice"}}},
			Parents: []UID{},
		},
	}
	if _, err := records.normalizeEntities(); err != nil {
		t.Fatalf("Expected entity escape to normalize, got %v", err)
	}

	malformedEscape := EntityRecords{
		{
			UID:     UID{Type: "Photo", ID: "p1"},
			Attrs:   map[string]any{"owner": map[string]any{"__entity": "User::alice"}},
			Parents: []UID{},
		},
	}
	_, err := malformedEscape.normalizeEntities()
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedInputError for malformed escape, got %v", err)
	}
}
