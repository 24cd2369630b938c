// Package jsonmark implements the JSON watermark injector and scanner
// (spec components C9/C10): value-token encoding, field-name camouflage,
// and value-shape scanning that needs no knowledge of the chosen key.
package jsonmark

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// entry is one key/value pair of a top-level JSON object, value kept as
// raw, unparsed JSON so round-tripping never perturbs nested content.
type entry struct {
	key   string
	value json.RawMessage
}

// object is an insertion-order-preserving view of a top-level JSON object.
// encoding/json's map decoding loses key order, so injection and scanning
// both go through this instead.
type object struct {
	entries []entry
}

// decodeObject parses data as a JSON value and reports whether its root is
// an object. When it is, entries preserves the original key order.
func decodeObject(data []byte) (obj *object, isObject bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, fmt.Errorf("jsonmark: invalid json: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, false, nil
	}

	var entries []entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false, fmt.Errorf("jsonmark: invalid object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false, fmt.Errorf("jsonmark: non-string object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, false, fmt.Errorf("jsonmark: invalid object value for %q: %w", key, err)
		}
		entries = append(entries, entry{key: key, value: raw})
	}
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return nil, false, fmt.Errorf("jsonmark: malformed object: %w", err)
	}
	return &object{entries: entries}, true, nil
}

// keys returns the object's top-level keys in order.
func (o *object) keys() []string {
	keys := make([]string, len(o.entries))
	for i, e := range o.entries {
		keys[i] = e.key
	}
	return keys
}

// indexOf returns the position of key, or -1 if absent.
func (o *object) indexOf(key string) int {
	for i, e := range o.entries {
		if e.key == key {
			return i
		}
	}
	return -1
}

// removeValuesMatching drops every entry whose value matches pred,
// preserving the relative order of the rest.
func (o *object) removeValuesMatching(pred func(json.RawMessage) bool) {
	kept := o.entries[:0:0]
	for _, e := range o.entries {
		if !pred(e.value) {
			kept = append(kept, e)
		}
	}
	o.entries = kept
}

// insertAt inserts a new key/value pair at position pos (clamped to
// [0, len]), shifting later entries right.
func (o *object) insertAt(pos int, key string, value json.RawMessage) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(o.entries) {
		pos = len(o.entries)
	}
	o.entries = append(o.entries, entry{})
	copy(o.entries[pos+1:], o.entries[pos:])
	o.entries[pos] = entry{key: key, value: value}
}

// marshalPretty serializes the object back to 2-space-indented JSON,
// matching serde_json's to_string_pretty convention.
func (o *object) marshalPretty() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, e := range o.entries {
		if i > 0 {
			compact.WriteByte(',')
		}
		keyJSON, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		compact.Write(keyJSON)
		compact.WriteByte(':')
		compact.Write(e.value)
	}
	compact.WriteByte('}')

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return pretty.Bytes(), nil
}

// repretty reserializes an arbitrary JSON value (array, scalar, or an
// object handled elsewhere) with the same 2-space indentation, for the
// "non-object root" no-op path.
func repretty(data []byte) ([]byte, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return nil, fmt.Errorf("jsonmark: invalid json: %w", err)
	}
	return pretty.Bytes(), nil
}
