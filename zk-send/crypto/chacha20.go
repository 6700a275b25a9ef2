package crypto

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KDFOutputLen is the length of the SaplingKDF output split into a
// ChaCha20-Poly1305 key and nonce.
const KDFOutputLen = chacha20poly1305.KeySize + chacha20poly1305.NonceSize

func newAEAD(key, nonce []byte) (cipher.AEAD, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("invalid key size: must be %d bytes", chacha20poly1305.KeySize)
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("invalid nonce size: must be %d bytes", chacha20poly1305.NonceSize)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 AEAD: %w", err)
	}
	return aead, nil
}

// EncryptNote seals plaintext with ChaCha20-Poly1305. additionalData is
// authenticated but not encrypted; for notes it is the ephemeral public key
// or the commitment. The result carries the tag.
func EncryptNote(key, nonce, plaintext, additionalData []byte) ([]byte, error) {
	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, additionalData), nil
}

// DecryptNote opens a ciphertext made by EncryptNote.
func DecryptNote(key, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt note: %w", err)
	}
	return plaintext, nil
}

// SealWithSecret derives a key and nonce from a 32 byte secret and encrypts.
func SealWithSecret(secret, plaintext, additionalData []byte) ([]byte, error) {
	ks, err := SaplingKDF(secret, KDFOutputLen)
	if err != nil {
		return nil, err
	}
	return EncryptNote(ks[:chacha20poly1305.KeySize], ks[chacha20poly1305.KeySize:], plaintext, additionalData)
}

// OpenWithSecret is the inverse of SealWithSecret.
func OpenWithSecret(secret, ciphertext, additionalData []byte) ([]byte, error) {
	ks, err := SaplingKDF(secret, KDFOutputLen)
	if err != nil {
		return nil, err
	}
	return DecryptNote(ks[:chacha20poly1305.KeySize], ks[chacha20poly1305.KeySize:], ciphertext, additionalData)
}
