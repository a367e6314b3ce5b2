package adaptor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DeepMerge merges src into dst recursively: map-valued keys on both sides
// merge, everything else is replaced by the src value. dst is modified in
// place and returned; a nil dst allocates.
func DeepMerge(dst, src map[string]interface{}) map[string]interface{} {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		if sub, ok := v.(map[string]interface{}); ok {
			if cur, ok := dst[k].(map[string]interface{}); ok {
				dst[k] = DeepMerge(cur, sub)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

// newID mints an identifier in the upstream "prefix_<hex>" style.
func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

// asString returns v when it is a string and "" otherwise. Used where the
// protocol expects a string and anything else means "absent".
func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// stringify renders an arbitrary decoded JSON value as text: strings pass
// through, nil is empty, structured values serialize to JSON.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// mustJSON serializes v, falling back to "{}" on failure. Inputs are decoded
// JSON values, so failure is effectively unreachable.
func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// intValue extracts an integral number from a decoded JSON value.
func intValue(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	case int:
		return int64(t), true
	case int64:
		return t, true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
	}
	return 0, false
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, int, int64, json.Number:
		return true
	}
	return false
}
