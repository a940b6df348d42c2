package builder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Pair is one entry of a filter map.
type Pair struct {
	Key   string
	Value any
}

// Map is an ordered filter map. Entries compile in order.
type Map []Pair

// M builds a Map from alternating keys and values.
func M(kv ...any) Map {
	if len(kv)%2 != 0 {
		panic("builder.M: odd number of arguments")
	}
	m := make(Map, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("builder.M: key %v is not a string", kv[i]))
		}
		m = append(m, Pair{Key: key, Value: kv[i+1]})
	}
	return m
}

// Get returns the value of the first entry with the given key.
func (m Map) Get(key string) (any, bool) {
	for _, p := range m {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (m Map) Keys() []string {
	keys := make([]string, len(m))
	for i, p := range m {
		keys[i] = p.Key
	}
	return keys
}

// MarshalJSON writes the entries as a JSON object, preserving order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// asMap accepts a Map or a plain string-keyed map. Plain maps have no
// order, so their keys are sorted.
func asMap(v any) (Map, bool) {
	switch x := v.(type) {
	case Map:
		return x, true
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(Map, 0, len(keys))
		for _, k := range keys {
			m = append(m, Pair{Key: k, Value: x[k]})
		}
		return m, true
	default:
		return nil, false
	}
}
