// Package document holds the generic, order-preserving representation of a parsed
// contract file. YAML and JSON sources decode into the same shape so the sniffer and
// parsers never care which syntax a contract was written in.
package document

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   string
	Value any
}

// Map is an ordered mapping. Values are *Map, []any, string, bool, int64, float64,
// json.Number or nil.
type Map struct {
	entries []Entry
	index   map[string]int
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Set adds key or replaces its value in place, keeping the original position.
func (m *Map) Set(key string, value any) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// Len returns the number of keys; a nil Map has none.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Has reports whether key is present, regardless of its value.
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[key]
	return ok
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Entries returns the pairs in source order. The slice must not be modified.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Keys returns keys in source order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	for _, e := range m.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

// String returns the value under key rendered as text. Scalars are formatted,
// anything else (or a missing key) yields "".
func (m *Map) String(key string) string {
	v, _ := m.Get(key)
	return Scalar(v)
}

// Map returns the nested mapping under key, or nil.
func (m *Map) Map(key string) *Map {
	v, _ := m.Get(key)
	sub, _ := v.(*Map)
	return sub
}

// Slice returns the sequence under key, or nil.
func (m *Map) Slice(key string) []any {
	v, _ := m.Get(key)
	s, _ := v.([]any)
	return s
}

// Bool reports whether the value under key is boolean true.
func (m *Map) Bool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

// MarshalJSON emits the keys in source order. See Encode for the value rules.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Scalar formats a scalar value as text. Mappings, sequences and nil yield "".
func Scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// Truthy reports whether v counts as a present, non-empty marker value: nil, "",
// false and numeric zero do not.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

// Strings collects the scalar items of a sequence, skipping anything else.
func Strings(items []any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := Scalar(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Maps collects the mapping items of a sequence, skipping anything else.
func Maps(items []any) []*Map {
	out := make([]*Map, 0, len(items))
	for _, it := range items {
		if m, ok := it.(*Map); ok {
			out = append(out, m)
		}
	}
	return out
}
