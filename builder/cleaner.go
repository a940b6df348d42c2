package builder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gobeam/stringy"
	"gopkg.in/yaml.v2"
)

// NormalizeKey converts a filter key to its canonical snake_case form.
// Dotted keys are converted segment by segment.
func NormalizeKey(key string) string {
	parts := strings.Split(strings.TrimSpace(key), ".")
	for i, p := range parts {
		parts[i] = stringy.New(p).SnakeCase().ToLower()
	}
	return strings.Join(parts, ".")
}

// Clean converts decoded filter input into a Map with canonical keys.
func Clean(v any) (Map, error) {
	cleaned, err := cleanValue(v)
	if err != nil {
		return nil, err
	}
	m, ok := cleaned.(Map)
	if !ok {
		return nil, argumentError(KindMalformed, v, "filter must be a hash, got '%v'", v)
	}
	return m, nil
}

func cleanValue(v any) (any, error) {
	switch x := v.(type) {
	case Map:
		m := make(Map, 0, len(x))
		for _, p := range x {
			value, err := cleanValue(p.Value)
			if err != nil {
				return nil, err
			}
			m = append(m, Pair{Key: NormalizeKey(p.Key), Value: value})
		}
		return m, nil
	case yaml.MapSlice:
		m := make(Map, 0, len(x))
		for _, item := range x {
			m = append(m, Pair{Key: fmt.Sprint(item.Key), Value: item.Value})
		}
		return cleanValue(m)
	case map[string]any:
		m, _ := asMap(x)
		return cleanValue(m)
	case map[any]any:
		keys := make([]string, 0, len(x))
		values := make(map[string]any, len(x))
		for k, value := range x {
			key := fmt.Sprint(k)
			keys = append(keys, key)
			values[key] = value
		}
		sort.Strings(keys)
		m := make(Map, 0, len(keys))
		for _, k := range keys {
			m = append(m, Pair{Key: k, Value: values[k]})
		}
		return cleanValue(m)
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			value, err := cleanValue(item)
			if err != nil {
				return nil, err
			}
			items[i] = value
		}
		return items, nil
	case json.Number:
		return jsonNumber(x)
	default:
		return v, nil
	}
}

// ParseJSON decodes a JSON filter object, keeping key order.
func ParseJSON(data []byte) (Map, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSON(dec)
	if err != nil {
		return nil, argumentError(KindMalformed, nil, "filter is not valid JSON: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, argumentError(KindMalformed, nil, "filter is not valid JSON: unexpected data after top-level value")
	}
	return Clean(v)
}

func decodeJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := Map{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", kt)
				}
				value, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				m = append(m, Pair{Key: key, Value: value})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			items := []any{}
			for dec.More() {
				value, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return items, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case json.Number:
		return jsonNumber(t)
	default:
		return t, nil
	}
}

func jsonNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, argumentError(KindValueShape, n.String(), "value '%s' is not a number", n.String())
	}
	return f, nil
}

// ParseYAML decodes a YAML (or flow-style JSON) filter document, keeping key order.
func ParseYAML(data []byte) (Map, error) {
	var doc yaml.MapSlice
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, argumentError(KindMalformed, nil, "filter is not valid YAML: %v", err)
	}
	return Clean(doc)
}
