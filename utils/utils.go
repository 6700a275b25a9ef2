package utils

import (
	"hash"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// DefaultHasher is the hasher of the note commitment tree.
// It must stay in sync with the hasher given to merkletree.New by the ledger.
func DefaultHasher() hash.Hash {
	return MiMCHasher()
}

func DefaultHashSum(ins ...[]byte) []byte {
	return MiMCHash(ins...)
}

func MiMCHasher() hash.Hash {
	return mimc.NewMiMC()
}

// MiMCHash hashes arbitrary byte strings. Each full 32 byte chunk is reduced
// modulo the BN254 scalar field before being absorbed, so the inputs do not
// need to be canonical field elements.
func MiMCHash(ins ...[]byte) []byte {
	hasher := MiMCHasher()

	blockSize := hasher.Size()

	hasher.Reset()
	for _, in := range ins {

		for i := 0; i < len(in); i += blockSize {
			end := i + blockSize
			if end > len(in) {
				end = len(in)
			}
			chunk := in[i:end]

			if len(chunk) == blockSize {
				// this value may be greater than the modulus; convert to fr.Element
				var elem fr.Element
				elem.SetBytes(chunk)
				// canonical form
				chunk = elem.Marshal()
			}
			if _, err := hasher.Write(chunk); err != nil {
				panic(err)
			}
		}
	}
	return hasher.Sum(nil)
}

// LeafHash and NodeHash reproduce the hashing of
// gnark-crypto/accumulator/merkletree so that authentication paths served by
// a merkletree backed ledger can be folded back into its root.
func LeafHash(data []byte) []byte {
	return sum(MiMCHasher(), data)
}

func NodeHash(left, right []byte) []byte {
	return sum(MiMCHasher(), left, right)
}

func sum(h hash.Hash, data ...[]byte) []byte {
	h.Reset()
	for _, d := range data {
		if _, err := h.Write(d); err != nil {
			panic(err)
		}
	}
	return h.Sum(nil)
}
