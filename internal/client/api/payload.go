package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Payload is a decoded JSON object. Numbers are kept as json.Number.
type Payload map[string]any

// String returns the first non-empty value among keys, formatted as text.
func (p Payload) String(keys ...string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// Int64 reads an integer that may arrive as a JSON number or as a numeric
// string. ok is false when the key is absent, null or empty; err is set when
// a value is present but is not an integer.
func (p Payload) Int64(key string) (n int64, ok bool, err error) {
	switch v := p[key].(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		n, err = v.Int64()
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		n, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case int:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, true, fmt.Errorf("%s: %v is not an integer", key, v)
		}
		n = int64(v)
	default:
		return 0, true, fmt.Errorf("%s: unexpected type %T", key, v)
	}
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// Bool is true when any of keys holds true or the string "true".
func (p Payload) Bool(keys ...string) bool {
	for _, k := range keys {
		switch v := p[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if strings.EqualFold(v, "true") {
				return true
			}
		}
	}
	return false
}

// Object returns the nested object stored under key.
func (p Payload) Object(key string) (Payload, bool) {
	m, ok := p[key].(map[string]any)
	return Payload(m), ok
}

// Strings returns the string elements of the array stored under key.
func (p Payload) Strings(key string) []string {
	arr, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		switch s := v.(type) {
		case string:
			out = append(out, s)
		case json.Number:
			out = append(out, s.String())
		}
	}
	return out
}
