package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	tedwards "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	jubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"golang.org/x/crypto/blake2s"
)

const SeedSize = 32

// KeyFromSeed deterministically expands a 32 byte seed into a key pair.
func KeyFromSeed(seed []byte) (*jubjub.PrivateKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes", SeedSize)
	}
	return jubjub.GenerateKey(bytes.NewReader(seed))
}

func NewPub() *jubjub.PublicKey {
	return new(jubjub.PublicKey)
}

// PubFromBytes parses a compressed public key and checks it is on the curve.
func PubFromBytes(bz []byte) (*jubjub.PublicKey, error) {
	pub := NewPub()
	if _, err := pub.SetBytes(bz); err != nil {
		return nil, err
	}
	return pub, nil
}

// ECDHEComputeSharedSecret computes the ECDHE shared secret
// sharedSecret = privateKey * otherPublicKey
func ECDHEComputeSharedSecret(privateKey *jubjub.PrivateKey, otherPublicKey *jubjub.PublicKey) ([]byte, error) {
	// Verify the other public key is on the curve
	if !otherPublicKey.A.IsOnCurve() {
		return nil, errors.New("other public key is not on curve")
	}

	// Compute shared secret: privateKey * otherPublicKey
	var sharedSecret tedwards.PointAffine

	scalarBytes := privateKey.Bytes()
	scalarBigInt := new(big.Int).SetBytes(scalarBytes[32:64])
	sharedSecret.ScalarMultiplication(&otherPublicKey.A, scalarBigInt)

	if !sharedSecret.IsOnCurve() {
		return nil, errors.New("computed shared secret is not on curve")
	}

	hasher, err := blake2s.New256(nil)
	if err != nil {
		return nil, err
	}
	ax := sharedSecret.X.Bytes()
	hasher.Write(ax[:])
	return hasher.Sum(nil), nil
}

// SaplingKDF derives a key stream of a specified length from a shared secret using BLAKE2s.
// It is the PRF^expand construction of Zcash Sapling, close to HKDF-Expand (RFC 5869).
func SaplingKDF(sharedSecret []byte, outputLen int) ([]byte, error) {
	if len(sharedSecret) != 32 {
		return nil, fmt.Errorf("sharedSecret must be 32 bytes")
	}

	personalization := []byte("Zcash_ExpandSeed")

	var keyStream []byte
	var counter byte = 1 // The counter must start at 1.
	for len(keyStream) < outputLen {
		h, err := blake2s.New256(personalization)
		if err != nil {
			return nil, fmt.Errorf("failed to create blake2s hash: %w", err)
		}
		h.Write(sharedSecret)
		h.Write([]byte{counter})

		keyStream = append(keyStream, h.Sum(nil)...)

		counter++
		if counter == 0 {
			return nil, errors.New("KDF counter overflow")
		}
	}

	return keyStream[:outputLen], nil
}

// DeriveKey is a keyed BLAKE2s PRF: DeriveKey(k, d...) = BLAKE2s_k(d_0 || d_1 || ...).
// It separates the keys derived from one spending key by their domain tag.
func DeriveKey(key []byte, domain ...[]byte) ([]byte, error) {
	if len(key) == 0 || len(key) > blake2s.Size {
		return nil, fmt.Errorf("key must be 1..%d bytes", blake2s.Size)
	}
	h, err := blake2s.New256(key)
	if err != nil {
		return nil, err
	}
	for _, d := range domain {
		h.Write(d)
	}
	return h.Sum(nil), nil
}
