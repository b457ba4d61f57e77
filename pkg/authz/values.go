package authz

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/cedar-policy/cedar-go"
)

// cedarValue converts a caller-supplied attribute or context value into the
// engine's value model. Accepted Go shapes: bool, string, integral numbers,
// []any (set), map[string]any (record), the {"__entity": {"type", "id"}}
// escape for typed entity references, and pre-built cedar.Value instances.
// Anything else is a MalformedInputError on the named field - conversion
// never coerces silently.
func cedarValue(field string, v any) (cedar.Value, error) {
	switch x := v.(type) {
	case cedar.Value:
		return x, nil
	case bool:
		return cedar.Boolean(x), nil
	case string:
		return cedar.String(x), nil
	case int:
		return cedar.Long(int64(x)), nil
	case int32:
		return cedar.Long(int64(x)), nil
	case int64:
		return cedar.Long(x), nil
	case float64:
		// JSON numbers decode as float64; Cedar longs are the only numeric
		// primitive this layer represents, so non-integral values are errors.
		if x != math.Trunc(x) || x < math.MinInt64 || x > math.MaxInt64 {
			return nil, &MalformedInputError{
				Field:  field,
				Reason: fmt.Sprintf("number %v cannot be represented as a Cedar long", x),
			}
		}
		return cedar.Long(int64(x)), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return nil, &MalformedInputError{
				Field:  field,
				Reason: fmt.Sprintf("number %q cannot be represented as a Cedar long", x.String()),
			}
		}
		return cedar.Long(n), nil
	case []any:
		elems := make([]cedar.Value, 0, len(x))
		for i, e := range x {
			ev, err := cedarValue(fmt.Sprintf("%s[%d]", field, i), e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, ev)
		}
		return cedar.NewSet(elems...), nil
	case map[string]any:
		if uid, ok, err := entityEscape(field, x); err != nil {
			return nil, err
		} else if ok {
			return uid, nil
		}
		rec := cedar.RecordMap{}
		for k, e := range x {
			ev, err := cedarValue(field+"."+k, e)
			if err != nil {
				return nil, err
			}
			rec[cedar.String(k)] = ev
		}
		return cedar.NewRecord(rec), nil
	case nil:
		return nil, &MalformedInputError{Field: field, Reason: "null values cannot be represented"}
	default:
		return nil, &MalformedInputError{
			Field:  field,
			Reason: fmt.Sprintf("value of type %T cannot be represented", v),
		}
	}
}

// entityEscape recognizes the Cedar JSON {"__entity": {"type": T, "id": I}}
// escape and converts it to an entity reference. A present but malformed
// escape is an error, not a record.
func entityEscape(field string, m map[string]any) (cedar.EntityUID, bool, error) {
	raw, ok := m["__entity"]
	if !ok {
		return cedar.EntityUID{}, false, nil
	}
	if len(m) != 1 {
		return cedar.EntityUID{}, false, &MalformedInputError{
			Field:  field,
			Reason: "__entity escape must be the only key in its record",
		}
	}
	ref, ok := raw.(map[string]any)
	if !ok {
		return cedar.EntityUID{}, false, &MalformedInputError{
			Field:  field,
			Reason: "__entity escape must be an object with type and id",
		}
	}
	typ, tok := ref["type"].(string)
	id, iok := ref["id"].(string)
	if !tok || !iok || typ == "" {
		return cedar.EntityUID{}, false, &MalformedInputError{
			Field:  field,
			Reason: "__entity escape requires string type and id",
		}
	}
	return cedar.NewEntityUID(cedar.EntityType(typ), cedar.String(id)), true, nil
}

// recordFromMap converts an attribute mapping into a Cedar record. Keys are
// processed in sorted order so equivalent inputs yield identical error
// reporting regardless of map iteration order.
func recordFromMap(field string, m map[string]any) (cedar.Record, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := cedar.RecordMap{}
	for _, k := range keys {
		v, err := cedarValue(field+"."+k, m[k])
		if err != nil {
			return cedar.Record{}, err
		}
		rec[cedar.String(k)] = v
	}
	return cedar.NewRecord(rec), nil
}
