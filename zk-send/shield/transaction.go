package shield

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kysee/zksend/utils"
	"github.com/kysee/zksend/zk-send/crypto"
	"golang.org/x/crypto/blake2b"
)

const txVersion = 1

var ErrInvalidTransaction = errors.New("invalid transaction")

// SpendDescription is the public part of one spend: the tree state the
// witness was taken against and the nullifier that marks the note spent.
type SpendDescription struct {
	RootHash  []byte
	TreeSize  uint64
	Nullifier []byte
}

// SignedTransaction is what the reference suite posts.
type SignedTransaction struct {
	Version    byte
	Fee        uint64
	Expiration uint32
	Spends     []SpendDescription
	Notes      [][]byte // serialized MerkleNotes
	AuthKey    []byte
	Signature  []byte
}

var _ Transaction = (*SignedTransaction)(nil)

func ReadTransaction(bz []byte) (*SignedTransaction, error) {
	var tx SignedTransaction
	if err := rlp.DecodeBytes(bz, &tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	return &tx, nil
}

type txBody struct {
	Version    byte
	Fee        uint64
	Expiration uint32
	Spends     []SpendDescription
	Notes      [][]byte
	AuthKey    []byte
}

// SigHash is the MiMC digest of the RLP encoded transaction without its
// signature. It is a canonical field element, as the eddsa signer requires.
func (tx *SignedTransaction) SigHash() ([]byte, error) {
	bz, err := rlp.EncodeToBytes(&txBody{
		Version:    tx.Version,
		Fee:        tx.Fee,
		Expiration: tx.Expiration,
		Spends:     tx.Spends,
		Notes:      tx.Notes,
		AuthKey:    tx.AuthKey,
	})
	if err != nil {
		return nil, err
	}
	return utils.MiMCHash(bz), nil
}

func (tx *SignedTransaction) Verify() error {
	if tx.Version != txVersion {
		return fmt.Errorf("%w: unknown version %d", ErrInvalidTransaction, tx.Version)
	}
	if len(tx.Spends) == 0 {
		return fmt.Errorf("%w: no spends", ErrInvalidTransaction)
	}
	if len(tx.Notes) == 0 {
		return fmt.Errorf("%w: no notes", ErrInvalidTransaction)
	}

	seen := make(map[string]struct{}, len(tx.Spends))
	for i, sp := range tx.Spends {
		var e fr.Element
		if err := e.SetBytesCanonical(sp.RootHash); err != nil {
			return fmt.Errorf("%w: spend %d root: %v", ErrInvalidTransaction, i, err)
		}
		if err := e.SetBytesCanonical(sp.Nullifier); err != nil {
			return fmt.Errorf("%w: spend %d nullifier: %v", ErrInvalidTransaction, i, err)
		}
		if sp.TreeSize == 0 {
			return fmt.Errorf("%w: spend %d has an empty tree", ErrInvalidTransaction, i)
		}
		if _, ok := seen[string(sp.Nullifier)]; ok {
			return fmt.Errorf("%w: duplicate nullifier", ErrInvalidTransaction)
		}
		seen[string(sp.Nullifier)] = struct{}{}
	}

	if _, err := tx.MerkleNotes(); err != nil {
		return err
	}

	pub, err := crypto.PubFromBytes(tx.AuthKey)
	if err != nil {
		return fmt.Errorf("%w: auth key: %v", ErrInvalidTransaction, err)
	}
	msg, err := tx.SigHash()
	if err != nil {
		return err
	}
	ok, err := pub.Verify(tx.Signature, msg, utils.MiMCHasher())
	if err != nil {
		return fmt.Errorf("%w: signature: %v", ErrInvalidTransaction, err)
	}
	if !ok {
		return fmt.Errorf("%w: bad signature", ErrInvalidTransaction)
	}
	return nil
}

// MerkleNotes parses the note envelopes in output order.
func (tx *SignedTransaction) MerkleNotes() ([]*MerkleNote, error) {
	notes := make([]*MerkleNote, len(tx.Notes))
	for i, bz := range tx.Notes {
		mn, err := ReadMerkleNote(bz)
		if err != nil {
			return nil, fmt.Errorf("%w: note %d: %v", ErrInvalidTransaction, i, err)
		}
		notes[i] = mn
	}
	return notes, nil
}

func (tx *SignedTransaction) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(tx)
}

func (tx *SignedTransaction) Hash() ([]byte, error) {
	bz, err := tx.Bytes()
	if err != nil {
		return nil, err
	}
	h := blake2b.Sum256(bz)
	return h[:], nil
}
