package payload_test

import (
	"testing"

	"github.com/blindmarkctl/blindmark/internal/payload"
)

func TestEncodeMD5KnownText(t *testing.T) {
	bits, hexDigest := payload.EncodeMD5("Hello, World!")
	const want = "65a8e27d8879283831b664bd8b7f0ad4"
	if hexDigest != want {
		t.Errorf("hexDigest = %q, want %q", hexDigest, want)
	}
	if len(bits) != payload.MD5Bits {
		t.Errorf("len(bits) = %d, want %d", len(bits), payload.MD5Bits)
	}
}

func TestMD5RoundTrip(t *testing.T) {
	bits, hexDigest := payload.EncodeMD5("Test watermark 123")
	decoded, err := payload.DecodeMD5(bits)
	if err != nil {
		t.Fatalf("DecodeMD5: %v", err)
	}
	if decoded != hexDigest {
		t.Errorf("decoded = %q, want %q", decoded, hexDigest)
	}
}

func TestDecodeMD5InvalidLength(t *testing.T) {
	if _, err := payload.DecodeMD5(make([]int, 100)); err == nil {
		t.Error("expected error for wrong-length bit vector")
	}
}

func TestDecodeMD5InvalidBitValue(t *testing.T) {
	bits := make([]int, payload.MD5Bits)
	bits[0] = 2
	if _, err := payload.DecodeMD5(bits); err == nil {
		t.Error("expected error for invalid bit value")
	}
}

func TestTextToBitsLength(t *testing.T) {
	bits, err := payload.EncodeText("Hello")
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	if len(bits) != payload.TextBits {
		t.Errorf("len(bits) = %d, want %d", len(bits), payload.TextBits)
	}
}

func TestTextRoundTripASCII(t *testing.T) {
	const text = "buyer:Alice"
	bits, err := payload.EncodeText(text)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	decoded, ok := payload.DecodeText(bits)
	if !ok || decoded != text {
		t.Errorf("DecodeText = (%q, %v), want (%q, true)", decoded, ok, text)
	}
}

func TestTextRoundTripUnicode(t *testing.T) {
	const text = "购买者:张三李四 ID:12345"
	bits, err := payload.EncodeText(text)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	decoded, ok := payload.DecodeText(bits)
	if !ok || decoded != text {
		t.Errorf("DecodeText = (%q, %v), want (%q, true)", decoded, ok, text)
	}
}

func TestTextTooLong(t *testing.T) {
	long := ""
	for i := 0; i < 65; i++ {
		long += "a"
	}
	if _, err := payload.EncodeText(long); err == nil {
		t.Error("expected error for text exceeding 64 bytes")
	}
}

func TestTextExactly64Bytes(t *testing.T) {
	text := ""
	for i := 0; i < 64; i++ {
		text += "a"
	}
	if _, err := payload.EncodeText(text); err != nil {
		t.Errorf("EncodeText at exactly 64 bytes should succeed: %v", err)
	}
}

func TestDecodeTextInvalidMagic(t *testing.T) {
	bits := make([]int, payload.TextBits)
	if _, ok := payload.DecodeText(bits); ok {
		t.Error("expected no text for all-zero bits (wrong magic)")
	}
	bits[0] = 1
	if _, ok := payload.DecodeText(bits); ok {
		t.Error("expected no text for mismatched magic")
	}
}
