package compare

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Response represents a normalized API response
type Response struct {
	Data       any
	StatusCode int
}

// CompareResponses semantically compares the responses two databases gave
// for the same request. When keys are given, rows are reduced to those
// columns first, so type differences between drivers in other columns
// are ignored. Errors compare by status and error code only.
func CompareResponses(left, right Response, keys ...string) error {
	if left.StatusCode != right.StatusCode {
		return fmt.Errorf("status codes differ: left=%d, right=%d", left.StatusCode, right.StatusCode)
	}

	l, err := normalizeData(left.Data, keys)
	if err != nil {
		return fmt.Errorf("left: %w", err)
	}
	r, err := normalizeData(right.Data, keys)
	if err != nil {
		return fmt.Errorf("right: %w", err)
	}

	if !reflect.DeepEqual(l, r) {
		return fmt.Errorf("data differs:\nleft: %+v\nright: %+v", l, r)
	}

	return nil
}

// normalizeData converts data to a comparable format
func normalizeData(data any, keys []string) (any, error) {
	// Convert to JSON and back to normalize types
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("normalize response: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(jsonBytes, &normalized); err != nil {
		return nil, fmt.Errorf("normalize response: %w", err)
	}

	switch v := normalized.(type) {
	case []any:
		if len(keys) == 0 {
			return v, nil
		}
		rows := make([]any, len(v))
		for i, item := range v {
			rows[i] = project(item, keys)
		}
		return rows, nil
	case map[string]any:
		// error bodies carry driver specific details
		if code, ok := v["code"]; ok {
			return map[string]any{"code": code}, nil
		}
		if len(keys) > 0 {
			return project(v, keys), nil
		}
	}

	return normalized, nil
}

func project(item any, keys []string) any {
	row, ok := item.(map[string]any)
	if !ok {
		return item
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = row[k]
	}
	return out
}

// SortedIDs returns the "id" column of a row array, sorted, for
// comparisons where the order is not part of the request.
func SortedIDs(data any) ([]float64, error) {
	normalized, err := normalizeData(data, []string{"id"})
	if err != nil {
		return nil, err
	}
	rows, _ := normalized.([]any)

	ids := make([]float64, 0, len(rows))
	for _, r := range rows {
		if id, ok := r.(map[string]any)["id"].(float64); ok {
			ids = append(ids, id)
		}
	}
	sort.Float64s(ids)
	return ids, nil
}
