package jsonmark

import (
	"encoding/json"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
)

// DefaultKey is the field name used by Embed when no camouflage is
// requested, matching the fixed key the embedder falls back to.
const DefaultKey = "_watermark"

// Embed inserts (or replaces) a watermark value under key in the JSON
// object encoded by data, returning the re-serialized document. Any
// existing entry whose value already matches a watermark shape is
// removed first, so re-watermarking a file never leaves stale tokens
// behind. If data's root is not a JSON object, it is returned re-printed
// but otherwise untouched.
func Embed(data []byte, key string, text string, mode Mode, aesKey string) ([]byte, error) {
	obj, isObject, err := decodeObject(data)
	if err != nil {
		return nil, blinderr.Wrap(blinderr.EmbeddingFailed, err, "parse json")
	}
	if !isObject {
		return repretty(data)
	}

	value, err := encodeValue(text, mode, aesKey)
	if err != nil {
		return nil, blinderr.Wrap(blinderr.EmbeddingFailed, err, "encode watermark value")
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return nil, blinderr.Wrap(blinderr.EmbeddingFailed, err, "marshal watermark value")
	}

	obj.removeValuesMatching(func(raw json.RawMessage) bool {
		return matchesWatermarkRaw(raw)
	})

	if key == "" {
		key = DefaultKey
	}
	pos := obj.indexOf(key)
	if pos < 0 {
		pos = len(obj.entries)
	} else {
		obj.entries = append(obj.entries[:pos], obj.entries[pos+1:]...)
	}
	obj.insertAt(pos, key, json.RawMessage(valueJSON))

	return obj.marshalPretty()
}

// EmbedObfuscated behaves like Embed but disguises the watermark's field
// name as a plausible sibling of the document's existing keys rather than
// using a fixed, recognizable key (spec.md §4.9).
func EmbedObfuscated(data []byte, text string, mode Mode, aesKey string) ([]byte, error) {
	obj, isObject, err := decodeObject(data)
	if err != nil {
		return nil, blinderr.Wrap(blinderr.EmbeddingFailed, err, "parse json")
	}
	if !isObject {
		return repretty(data)
	}

	value, err := encodeValue(text, mode, aesKey)
	if err != nil {
		return nil, blinderr.Wrap(blinderr.EmbeddingFailed, err, "encode watermark value")
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return nil, blinderr.Wrap(blinderr.EmbeddingFailed, err, "marshal watermark value")
	}

	obj.removeValuesMatching(matchesWatermarkRaw)

	existingKeys := obj.keys()
	taken := takenSet(existingKeys)
	key, baseKey := disguisedKey(existingKeys, taken)

	baseIdx := -1
	if baseKey != "" {
		baseIdx = obj.indexOf(baseKey)
	}
	pos := insertPosition(len(obj.entries), baseIdx)
	obj.insertAt(pos, key, json.RawMessage(valueJSON))

	return obj.marshalPretty()
}

// matchesWatermarkRaw reports whether raw decodes to a JSON string
// matching one of the watermark value shapes.
func matchesWatermarkRaw(raw json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return isWatermarkValue(s)
}
