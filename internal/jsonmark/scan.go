package jsonmark

import (
	"encoding/json"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
)

// Match pairs a recovered watermark with the key it was stored under.
type Match struct {
	Key string
	Finding
}

// Scan walks every top-level entry of the JSON object encoded in data and
// returns every value matching a watermark shape, in document order. It
// never inspects key names, only value shapes, so it finds watermarks
// regardless of whatever camouflaged key EmbedObfuscated chose. aesKey may
// be empty, in which case AES-mode matches are still reported but with
// Decrypted=false.
func Scan(data []byte, aesKey string) ([]Match, error) {
	obj, isObject, err := decodeObject(data)
	if err != nil {
		return nil, blinderr.Wrap(blinderr.ExtractionFailed, err, "parse json")
	}
	if !isObject {
		return nil, nil
	}

	var matches []Match
	for _, e := range obj.entries {
		var s string
		if err := json.Unmarshal(e.value, &s); err != nil {
			continue
		}
		finding, ok := decodeValue(s, aesKey)
		if !ok {
			continue
		}
		matches = append(matches, Match{Key: e.key, Finding: finding})
	}
	return matches, nil
}

// Extract returns the first watermark value found in data, matching the
// single-result shape most callers want. ok is false when no watermark
// shape is present anywhere in the top-level object.
func Extract(data []byte, aesKey string) (Finding, bool, error) {
	matches, err := Scan(data, aesKey)
	if err != nil {
		return Finding{}, false, err
	}
	if len(matches) == 0 {
		return Finding{}, false, nil
	}
	return matches[0].Finding, true, nil
}
