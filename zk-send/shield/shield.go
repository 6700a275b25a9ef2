package shield

import (
	"fmt"

	"github.com/kysee/zksend/zk-send/crypto"
	"github.com/kysee/zksend/zk-send/types"
)

// Suite is every cryptographic capability the wallet pipeline needs.
type Suite interface {
	PublicAddress(IncomingViewKey) (types.Address, error)
	DecryptNoteForOwner(*MerkleNote, IncomingViewKey) (*Note, error)
	DecryptNoteForSpender(*MerkleNote, OutgoingViewKey) (*Note, error)
	NewOutput(owner, sender types.Address, value uint64, memo string) (*Note, error)
	EncryptNote(*Note, OutgoingViewKey) (*MerkleNote, error)
	NewBuilder(SpendingKey) (Builder, error)
}

// Builder accumulates spends and outputs of one transaction.
type Builder interface {
	AddSpend(*Note, *Witness) error
	AddOutput(*Note) error
	SetExpiration(uint32)
	Post(fee uint64) (Transaction, error)
}

type Transaction interface {
	Verify() error
	Bytes() ([]byte, error)
	Hash() ([]byte, error)
}

// Jubjub is the reference Suite over the BN254 twisted Edwards curve.
type Jubjub struct{}

var _ Suite = (*Jubjub)(nil)

func (Jubjub) PublicAddress(ivk IncomingViewKey) (types.Address, error) {
	return ivk.PublicAddress()
}

func (Jubjub) DecryptNoteForOwner(mn *MerkleNote, ivk IncomingViewKey) (*Note, error) {
	return decryptForOwner(mn, ivk)
}

func (Jubjub) DecryptNoteForSpender(mn *MerkleNote, ovk OutgoingViewKey) (*Note, error) {
	return decryptForSpender(mn, ovk)
}

func (Jubjub) NewOutput(owner, sender types.Address, value uint64, memo string) (*Note, error) {
	return newNote(owner, sender, value, memo)
}

func (Jubjub) EncryptNote(n *Note, ovk OutgoingViewKey) (*MerkleNote, error) {
	return encryptNote(n, ovk)
}

func (Jubjub) NewBuilder(sk SpendingKey) (Builder, error) {
	return NewProposedTransaction(sk)
}

// newNote creates a native asset note with fresh commitment randomness.
func newNote(owner, sender types.Address, value uint64, memo string) (*Note, error) {
	if _, err := crypto.PubFromBytes(owner[:]); err != nil {
		return nil, fmt.Errorf("invalid owner address: %w", err)
	}
	n := &Note{
		Owner:   owner,
		Sender:  sender,
		Value:   value,
		AssetID: NativeAssetID,
		Memo:    NewMemo(memo),
	}
	copy(n.Rcm[:], types.RandBytes(32))
	return n, nil
}
