package shield

import (
	"bytes"
	"errors"
	"fmt"

	jubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/holiman/uint256"
	"github.com/kysee/zksend/utils"
	"github.com/kysee/zksend/zk-send/types"
)

var (
	ErrNotSpender       = errors.New("note is not owned by the spending key")
	ErrDuplicateSpend   = errors.New("note is already spent in this transaction")
	ErrInvalidBalance   = errors.New("spends do not cover outputs and fee")
	ErrUnsupportedAsset = errors.New("only the native asset is supported")
)

type spend struct {
	note    *Note
	witness *Witness
}

// ProposedTransaction collects spends and outputs until Post seals them.
type ProposedTransaction struct {
	addr types.Address
	ovk  OutgoingViewKey
	ask  *jubjub.PrivateKey
	nk   []byte

	spends     []spend
	outputs    []*Note
	expiration uint32
}

var _ Builder = (*ProposedTransaction)(nil)

func NewProposedTransaction(sk SpendingKey) (*ProposedTransaction, error) {
	addr, err := sk.PublicAddress()
	if err != nil {
		return nil, err
	}
	ask, err := sk.spendAuthKey()
	if err != nil {
		return nil, err
	}
	return &ProposedTransaction{
		addr: addr,
		ovk:  sk.OutgoingViewKey(),
		ask:  ask,
		nk:   sk.nullifierKey(),
	}, nil
}

func (p *ProposedTransaction) AddSpend(n *Note, w *Witness) error {
	if n.Owner != p.addr {
		return ErrNotSpender
	}
	if n.AssetID != NativeAssetID {
		return ErrUnsupportedAsset
	}
	if w == nil || w.TreeSize == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidWitness)
	}
	cm := n.Commitment()
	if !w.Verify(cm) {
		return fmt.Errorf("%w: root mismatch", ErrInvalidWitness)
	}
	for _, s := range p.spends {
		if bytes.Equal(s.note.Commitment(), cm) {
			return ErrDuplicateSpend
		}
	}
	p.spends = append(p.spends, spend{note: n, witness: w})
	return nil
}

func (p *ProposedTransaction) AddOutput(n *Note) error {
	if n.AssetID != NativeAssetID {
		return ErrUnsupportedAsset
	}
	p.outputs = append(p.outputs, n)
	return nil
}

func (p *ProposedTransaction) SetExpiration(height uint32) {
	p.expiration = height
}

// Post balances the transaction, returning whatever the outputs and fee do
// not consume to the spender as a change note, and signs it.
func (p *ProposedTransaction) Post(fee uint64) (Transaction, error) {
	if len(p.spends) == 0 {
		return nil, fmt.Errorf("%w: no spends", ErrInvalidBalance)
	}

	in := uint256.NewInt(0)
	for _, s := range p.spends {
		in.Add(in, uint256.NewInt(s.note.Value))
	}
	out := uint256.NewInt(fee)
	for _, n := range p.outputs {
		out.Add(out, uint256.NewInt(n.Value))
	}
	if in.Lt(out) {
		return nil, fmt.Errorf("%w: in(%s) < out(%s)", ErrInvalidBalance, in.Dec(), out.Dec())
	}

	outputs := p.outputs
	change := new(uint256.Int).Sub(in, out)
	if !change.IsZero() {
		if !change.IsUint64() {
			return nil, fmt.Errorf("%w: change overflows", ErrInvalidBalance)
		}
		cn, err := newNote(p.addr, p.addr, change.Uint64(), "")
		if err != nil {
			return nil, err
		}
		outputs = append(outputs[:len(outputs):len(outputs)], cn)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", ErrInvalidBalance)
	}

	tx := &SignedTransaction{
		Version:    txVersion,
		Fee:        fee,
		Expiration: p.expiration,
		AuthKey:    p.ask.PublicKey.Bytes(),
	}
	for _, s := range p.spends {
		tx.Spends = append(tx.Spends, SpendDescription{
			RootHash:  s.witness.RootHash.Marshal(),
			TreeSize:  s.witness.TreeSize,
			Nullifier: nullifier(s.note.Commitment(), p.nk),
		})
	}
	for _, n := range outputs {
		mn, err := encryptNote(n, p.ovk)
		if err != nil {
			return nil, err
		}
		bz, err := mn.Bytes()
		if err != nil {
			return nil, err
		}
		tx.Notes = append(tx.Notes, bz)
	}

	msg, err := tx.SigHash()
	if err != nil {
		return nil, err
	}
	tx.Signature, err = p.ask.Sign(msg, utils.MiMCHasher())
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func nullifier(cm, nk []byte) []byte {
	return utils.MiMCHash(cm, nk)
}
