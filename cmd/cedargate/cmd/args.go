package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/k9securityio/cedargate/pkg/authz"
)

// requestSpec is the on-disk shape of one authorization request. Context may
// be a JSON object or a string holding JSON object text; both forms are
// accepted.
type requestSpec struct {
	Principal     string          `json:"principal"`
	Action        string          `json:"action"`
	Resource      string          `json:"resource"`
	Context       json.RawMessage `json:"context,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

func (s requestSpec) toRequest() (authz.Request, error) {
	req := authz.Request{
		Principal:     authz.RefString(s.Principal),
		Action:        authz.RefString(s.Action),
		Resource:      authz.RefString(s.Resource),
		CorrelationID: s.CorrelationID,
	}
	raw := bytes.TrimSpace(s.Context)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		text := string(raw)
		if raw[0] == '"' {
			if err := json.Unmarshal(raw, &text); err != nil {
				return authz.Request{}, fmt.Errorf("decoding context: %w", err)
			}
		}
		req.Context = authz.ContextJSON(text)
	}
	return req, nil
}

// decodeRequests parses a request file: a single JSON object, or a JSON array
// of objects when batch is true.
func decodeRequests(data []byte, batch bool) ([]authz.Request, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var specs []requestSpec
	if batch {
		if err := dec.Decode(&specs); err != nil {
			return nil, fmt.Errorf("decoding batch file: %w", err)
		}
	} else {
		var one requestSpec
		if err := dec.Decode(&one); err != nil {
			return nil, fmt.Errorf("decoding request file: %w", err)
		}
		specs = []requestSpec{one}
	}

	reqs := make([]authz.Request, 0, len(specs))
	for i, spec := range specs {
		req, err := spec.toRequest()
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// assignCorrelationIDs fills in a fresh UUID for every request that did not
// carry its own tag. Requests that already have one are left untouched.
func assignCorrelationIDs(reqs []authz.Request) {
	for i := range reqs {
		if reqs[i].CorrelationID == "" {
			reqs[i].CorrelationID = uuid.NewString()
		}
	}
}

func policySourceFromFile(path string) (authz.PolicySource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policies: %w", err)
	}
	return authz.PolicyText(b), nil
}

func entitySourceFromFile(path string) (authz.EntitySource, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading entities: %w", err)
	}
	return authz.EntityJSON(b), nil
}

// schemaSourceFromFile reads a schema in either encoding. JSON is detected by
// content, not extension, so renamed files still work.
func schemaSourceFromFile(path string) (authz.SchemaSource, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	if looksLikeJSON(b) {
		return authz.SchemaJSON(b), nil
	}
	return authz.SchemaCedar(b), nil
}

func looksLikeJSON(b []byte) bool {
	trimmed := bytes.TrimSpace(b)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// readInput reads from the named file, or stdin when path is "" or "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
