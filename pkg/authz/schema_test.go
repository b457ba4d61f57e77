package authz

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSchemaSources_ConvergeOnActionEntities(t *testing.T) {
	t.Parallel()
	t.Log("Testing: all schema encodings yield the same derived action entities")

	jsonForm := SchemaJSON(`{
		"": {
			"entityTypes": {"User": {}, "Photo": {}},
			"actions": {
				"readOnly": {},
				"view": {"memberOf": [{"id": "readOnly"}], "appliesTo": {"principalTypes": ["User"], "resourceTypes": ["Photo"]}}
			}
		}
	}`)
	cedarForm := SchemaCedar(`
		entity User;
		entity Photo;
		action readOnly;
		action view in readOnly appliesTo { principal: User, resource: Photo };
	`)

	scJSON, err := jsonForm.normalizeSchema()
	if err != nil {
		t.Fatalf("JSON form: %v", err)
	}
	scCedar, err := cedarForm.normalizeSchema()
	if err != nil {
		t.Fatalf("Cedar form: %v", err)
	}

	uids := func(sc *schemaContext) map[string]bool {
		out := map[string]bool{}
		for _, e := range sc.actionEntities() {
			out[string(e.UID.Type)+"::"+string(e.UID.ID)] = true
		}
		return out
	}
	if diff := cmp.Diff(uids(scJSON), uids(scCedar)); diff != "" {
		t.Errorf("Action entities differ (-json +cedar):\n%s", diff)
	}
	if !uids(scJSON)["Action::view"] || !uids(scJSON)["Action::readOnly"] {
		t.Errorf("Expected view and readOnly actions, got %v", uids(scJSON))
	}
}

func TestSchemaCedar_ActionGroupParents(t *testing.T) {
	t.Parallel()
	t.Log("Testing: namespaced action groups become parent uids on derived entities")

	sc, err := SchemaCedar(`
		namespace PhotoApp {
			entity User;
			entity Photo;
			action readOnly;
			action view in readOnly appliesTo { principal: User, resource: Photo };
		}
	`).normalizeSchema()
	if err != nil {
		t.Fatalf("normalizeSchema failed: %v", err)
	}

	found := false
	for _, e := range sc.actionEntities() {
		if string(e.UID.Type) != "PhotoApp::Action" || string(e.UID.ID) != "view" {
			continue
		}
		found = true
		var parents []string
		for p := range e.Parents.All() {
			parents = append(parents, string(p.Type)+"::"+string(p.ID))
		}
		if diff := cmp.Diff([]string{`PhotoApp::Action::readOnly`}, parents); diff != "" {
			t.Errorf("view parents mismatch (-want +got):\n%s", diff)
		}
	}
	if !found {
		t.Fatal("Expected a derived PhotoApp::Action::\"view\" entity")
	}
}

func TestSchemaSource_Invalid(t *testing.T) {
	t.Parallel()

	for name, schema := range map[string]SchemaSource{
		"garbage cedar":       SchemaCedar(`this is not a schema`),
		"unterminated entity": SchemaCedar(`entity User`),
		"undefined group":     SchemaCedar(`entity User; action view in readOnly;`),
		"bad json":            SchemaJSON(`{ not json }`),
		"bad namespace shape": SchemaMap{"": "not a namespace"},
	} {
		_, err := schema.normalizeSchema()
		var malformed *MalformedInputError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: expected MalformedInputError, got %v", name, err)
			continue
		}
		if malformed.Field != "schema" {
			t.Errorf("%s: expected field schema, got %q", name, malformed.Field)
		}
	}
}
