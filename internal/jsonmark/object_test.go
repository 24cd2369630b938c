package jsonmark

import (
	"encoding/json"
	"testing"
)

func TestDecodeObjectPreservesOrder(t *testing.T) {
	obj, isObject, err := decodeObject([]byte(`{"c": 1, "a": 2, "b": 3}`))
	if err != nil {
		t.Fatalf("decodeObject: %v", err)
	}
	if !isObject {
		t.Fatalf("expected isObject=true")
	}
	want := []string{"c", "a", "b"}
	got := obj.keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDecodeObjectNonObjectRoot(t *testing.T) {
	for _, data := range []string{`[1,2,3]`, `"hello"`, `42`, `null`} {
		_, isObject, err := decodeObject([]byte(data))
		if err != nil {
			t.Fatalf("decodeObject(%q): %v", data, err)
		}
		if isObject {
			t.Fatalf("decodeObject(%q): expected isObject=false", data)
		}
	}
}

func TestObjectIndexOf(t *testing.T) {
	obj, _, _ := decodeObject([]byte(`{"x": 1, "y": 2}`))
	if obj.indexOf("y") != 1 {
		t.Fatalf("indexOf(y) = %d, want 1", obj.indexOf("y"))
	}
	if obj.indexOf("missing") != -1 {
		t.Fatalf("indexOf(missing) should be -1")
	}
}

func TestObjectInsertAt(t *testing.T) {
	obj, _, _ := decodeObject([]byte(`{"a": 1, "b": 2}`))
	obj.insertAt(1, "inserted", json.RawMessage(`true`))
	keys := obj.keys()
	want := []string{"a", "inserted", "b"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestObjectRemoveValuesMatching(t *testing.T) {
	obj, _, _ := decodeObject([]byte(`{"a": "keep", "b": "drop", "c": "keep"}`))
	obj.removeValuesMatching(func(raw json.RawMessage) bool {
		return string(raw) == `"drop"`
	})
	keys := obj.keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("unexpected keys after removal: %v", keys)
	}
}

func TestObjectMarshalPrettyIndentation(t *testing.T) {
	obj, _, _ := decodeObject([]byte(`{"a":1}`))
	out, err := obj.marshalPretty()
	if err != nil {
		t.Fatalf("marshalPretty: %v", err)
	}
	want := "{\n  \"a\": 1\n}"
	if string(out) != want {
		t.Fatalf("marshalPretty = %q, want %q", out, want)
	}
}
