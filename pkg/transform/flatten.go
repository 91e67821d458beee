package transform

import (
	"sort"
	"strings"
)

// Separator joins parent and child keys in flattened records.
const Separator = "."

// Flatten turns a nested record into dotted keys. Nested maps are walked;
// arrays are kept whole. Strings, including strings inside arrays, are
// scrubbed. Empty nested maps contribute no keys.
func Flatten(record map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(record))
	flattenInto(out, "", record)
	return out
}

func flattenInto(out map[string]interface{}, prefix string, m map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}

		switch val := v.(type) {
		case map[string]interface{}:
			flattenInto(out, key, val)
		case string:
			out[key] = Scrub(val)
		case []interface{}:
			out[key] = scrubSlice(val)
		default:
			out[key] = v
		}
	}
}

func scrubSlice(in []interface{}) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		if s, ok := v.(string); ok {
			out[i] = Scrub(s)
			continue
		}
		out[i] = v
	}
	return out
}

// ShortenKeys keeps only the last path segment of every key. Keys are
// visited in sorted order, so when two paths share a last segment the
// lexically greater path wins. The loss is accepted.
func ShortenKeys(flat map[string]interface{}) map[string]interface{} {
	keys := sortedKeys(flat)
	out := make(map[string]interface{}, len(flat))
	for _, k := range keys {
		out[ShortKey(k)] = flat[k]
	}
	return out
}

// ShortKey returns the part of key after the last separator.
func ShortKey(key string) string {
	if i := strings.LastIndex(key, Separator); i >= 0 {
		return key[i+len(Separator):]
	}
	return key
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
