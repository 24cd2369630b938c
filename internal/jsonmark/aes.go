package jsonmark

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// deriveKey turns an arbitrary passphrase into the 256-bit AES-GCM key:
// SHA-256(passphrase). Standard library crypto/aes + crypto/cipher provide
// AES-256-GCM directly; no third-party crypto library in the pack offers
// anything beyond what crypto/cipher.NewGCM already does, so this stays on
// the standard library by necessity rather than preference.
func deriveKey(passphrase string) [32]byte {
	return sha256.Sum256([]byte(passphrase))
}

// aesEncrypt returns hex(nonce ∥ ciphertext+tag) for plaintext, using a
// fresh random 12-byte nonce per call.
func aesEncrypt(plaintext, passphrase string) (string, error) {
	key := deriveKey(passphrase)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", fmt.Errorf("jsonmark: aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("jsonmark: gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("jsonmark: nonce: %w", err)
	}
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	combined := append(nonce, sealed...)
	return hex.EncodeToString(combined), nil
}

// aesDecrypt reverses aesEncrypt given the hex-encoded nonce∥ciphertext and
// the passphrase that produced it.
func aesDecrypt(hexCombined, passphrase string) (string, error) {
	combined, err := hex.DecodeString(hexCombined)
	if err != nil {
		return "", fmt.Errorf("jsonmark: invalid hex: %w", err)
	}
	key := deriveKey(passphrase)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", fmt.Errorf("jsonmark: aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("jsonmark: gcm: %w", err)
	}
	nonceSize := gcm.NonceSize()
	if len(combined) < nonceSize {
		return "", fmt.Errorf("jsonmark: ciphertext too short")
	}
	nonce, sealed := combined[:nonceSize], combined[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("jsonmark: decrypt: %w", err)
	}
	return string(plaintext), nil
}
