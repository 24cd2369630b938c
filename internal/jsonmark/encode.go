package jsonmark

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// encodeValue transforms watermark text into its on-disk value token per
// the chosen mode.
func encodeValue(text string, mode Mode, aesKey string) (string, error) {
	switch mode {
	case ModeMD5:
		sum := md5.Sum([]byte(text))
		return hex.EncodeToString(sum[:]), nil
	case ModePlaintext:
		return "txt:" + text, nil
	case ModeAES:
		cipherHex, err := aesEncrypt(text, aesKey)
		if err != nil {
			return "", err
		}
		return "aes:" + cipherHex, nil
	default:
		return "", fmt.Errorf("jsonmark: unknown mode %q", mode)
	}
}

// Finding is one recovered watermark value: its decoded text, the mode
// that produced it, and whether decoding succeeded (always true except
// for an aes token whose key was wrong or absent).
type Finding struct {
	Text      string
	Mode      Mode
	Decrypted bool
}

// decodeValue classifies and decodes a raw string value per spec.md §4.10.
// Returns ok=false if value does not match any watermark shape.
func decodeValue(value string, aesKey string) (f Finding, ok bool) {
	switch {
	case isPlaintextToken(value):
		return Finding{Text: value[4:], Mode: ModePlaintext, Decrypted: true}, true
	case md5Shape.MatchString(value):
		return Finding{Text: value, Mode: ModeMD5, Decrypted: true}, true
	case aesShape.MatchString(value):
		cipherHex := value[len("aes:"):]
		if aesKey == "" {
			return Finding{Text: value, Mode: ModeAES, Decrypted: false}, true
		}
		plain, err := aesDecrypt(cipherHex, aesKey)
		if err != nil {
			return Finding{Text: value, Mode: ModeAES, Decrypted: false}, true
		}
		return Finding{Text: plain, Mode: ModeAES, Decrypted: true}, true
	default:
		return Finding{}, false
	}
}
