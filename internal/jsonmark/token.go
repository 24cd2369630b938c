package jsonmark

import "regexp"

// Mode names the three watermark value encodings.
type Mode string

const (
	ModePlaintext Mode = "plaintext"
	ModeMD5       Mode = "md5"
	ModeAES       Mode = "aes"
)

var (
	md5Shape = regexp.MustCompile(`^[0-9a-f]{32}$`)
	aesShape = regexp.MustCompile(`^aes:[0-9a-f]+$`)
)

// isWatermarkValue reports whether s matches one of the three watermark
// value shapes (spec.md §3). This is the sole authority for "is this a
// watermark" — the scanner never needs the field name.
func isWatermarkValue(s string) bool {
	return md5Shape.MatchString(s) || aesShape.MatchString(s) || isPlaintextToken(s)
}

func isPlaintextToken(s string) bool {
	return len(s) >= 4 && s[:4] == "txt:"
}
