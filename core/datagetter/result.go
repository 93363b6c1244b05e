package datagetter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/ssrbridge/core/response"
)

// Result is the outcome of a wrapped getter: Data on success or Err on
// failure, plus the extender's fields in both cases.
type Result[T any] struct {
	Data  T
	Err   *response.HTTPError
	Extra map[string]any
}

// Ok reports whether the getter succeeded.
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// Failed reports whether the getter failed.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Fields returns the merged JSON representation of the result. Data that
// encodes as an object contributes its fields; other values are placed under
// DataField. Extra fields override data fields but never ErrorField.
func (r Result[T]) Fields() (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)

	if r.Err != nil {
		raw, err := json.Marshal(r.Err)
		if err != nil {
			return nil, fmt.Errorf("datagetter: encode error: %w", err)
		}
		fields[ErrorField] = raw
	} else {
		raw, err := json.Marshal(r.Data)
		if err != nil {
			return nil, fmt.Errorf("datagetter: encode data: %w", err)
		}
		switch trimmed := bytes.TrimSpace(raw); {
		case bytes.Equal(trimmed, []byte("null")):
		case len(trimmed) > 0 && trimmed[0] == '{':
			if err := json.Unmarshal(trimmed, &fields); err != nil {
				return nil, fmt.Errorf("datagetter: decode data: %w", err)
			}
			delete(fields, ErrorField)
		default:
			fields[DataField] = raw
		}
	}

	for k, v := range r.Extra {
		if k == ErrorField {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("datagetter: encode extra %q: %w", k, err)
		}
		fields[k] = raw
	}

	return fields, nil
}

// MarshalJSON implements json.Marshaler.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	fields, err := r.Fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}
