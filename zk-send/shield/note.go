package shield

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/kysee/zksend/utils"
	"github.com/kysee/zksend/zk-send/crypto"
	"github.com/kysee/zksend/zk-send/types"
	"golang.org/x/crypto/blake2s"
)

const (
	AssetIDSize    = 32
	MemoSize       = 32
	CommitmentSize = 32

	noteVersion = 1
)

var ErrMalformedNote = errors.New("malformed note")

type AssetID [AssetIDSize]byte

// NativeAssetID identifies the chain's native coin.
var NativeAssetID = AssetID(blake2s.Sum256([]byte("zksend/native-asset")))

func (id AssetID) Hex() string { return hex.EncodeToString(id[:]) }

type Memo [MemoSize]byte

// NewMemo truncates s to MemoSize bytes.
func NewMemo(s string) Memo {
	var m Memo
	copy(m[:], s)
	return m
}

func (m Memo) String() string {
	return string(bytes.TrimRight(m[:], "\x00"))
}

// Note is the plaintext of a shielded note.
type Note struct {
	Owner   types.Address
	Sender  types.Address
	Value   uint64
	AssetID AssetID
	Memo    Memo
	Rcm     [32]byte
}

// Commitment binds the owner, value, asset and randomness of the note. It
// is the leaf pushed into the note commitment tree.
func (n *Note) Commitment() []byte {
	value := uint256.NewInt(n.Value).Bytes32()
	return utils.MiMCHash(n.Owner[:], value[:], n.AssetID[:], n.Rcm[:])
}

func (n *Note) plaintext() *notePlaintext {
	return &notePlaintext{
		Version: noteVersion,
		Value:   uint256.NewInt(n.Value),
		AssetID: n.AssetID[:],
		Memo:    n.Memo[:],
		Sender:  n.Sender[:],
		Rcm:     n.Rcm[:],
	}
}

// notePlaintext is what gets encrypted to the owner. The owner itself is not
// part of it: the decrypting key implies it.
type notePlaintext struct {
	Version byte
	Value   *uint256.Int
	AssetID []byte
	Memo    []byte
	Sender  []byte
	Rcm     []byte
}

// EncodeRLP implements rlp.Encoder.
func (p *notePlaintext) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []interface{}{
		p.Version,
		p.Value.ToBig(),
		p.AssetID,
		p.Memo,
		p.Sender,
		p.Rcm,
	})
}

// DecodeRLP implements rlp.Decoder.
func (p *notePlaintext) DecodeRLP(s *rlp.Stream) error {
	var temp struct {
		Version byte
		Value   *big.Int // Decode into *big.Int first.
		AssetID []byte
		Memo    []byte
		Sender  []byte
		Rcm     []byte
	}
	if err := s.Decode(&temp); err != nil {
		return err
	}

	value, overflow := uint256.FromBig(temp.Value)
	if overflow {
		return fmt.Errorf("value overflows uint256")
	}

	p.Version = temp.Version
	p.Value = value
	p.AssetID = temp.AssetID
	p.Memo = temp.Memo
	p.Sender = temp.Sender
	p.Rcm = temp.Rcm
	return nil
}

func (p *notePlaintext) toNote(owner types.Address) (*Note, error) {
	if p.Version != noteVersion {
		return nil, fmt.Errorf("unknown note version %d", p.Version)
	}
	if !p.Value.IsUint64() {
		return nil, errors.New("note value overflows uint64")
	}
	if len(p.AssetID) != AssetIDSize || len(p.Memo) != MemoSize || len(p.Rcm) != 32 {
		return nil, errors.New("wrong note field length")
	}
	sender, err := types.AddressFromBytes(p.Sender)
	if err != nil {
		return nil, err
	}

	n := &Note{
		Owner:  owner,
		Sender: sender,
		Value:  p.Value.Uint64(),
	}
	copy(n.AssetID[:], p.AssetID)
	copy(n.Memo[:], p.Memo)
	copy(n.Rcm[:], p.Rcm)
	return n, nil
}

// MerkleNote is the encrypted envelope of a note as stored on the ledger.
//   - EncCiphertext opens with the ECDHE secret of the owner's incoming view key.
//   - OutCiphertext opens with the sender's outgoing view key and reveals
//     the owner and the ephemeral secret.
type MerkleNote struct {
	Commitment    []byte
	EphemeralKey  []byte
	EncCiphertext []byte
	OutCiphertext []byte
}

// ReadMerkleNote parses a serialized envelope. It only checks structure;
// whether any key can open it is decided by the decrypt functions.
func ReadMerkleNote(bz []byte) (*MerkleNote, error) {
	var mn MerkleNote
	if err := rlp.DecodeBytes(bz, &mn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNote, err)
	}
	var cm fr.Element
	if err := cm.SetBytesCanonical(mn.Commitment); err != nil {
		return nil, fmt.Errorf("%w: commitment: %v", ErrMalformedNote, err)
	}
	if _, err := crypto.PubFromBytes(mn.EphemeralKey); err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %v", ErrMalformedNote, err)
	}
	if len(mn.EncCiphertext) == 0 || len(mn.OutCiphertext) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrMalformedNote)
	}
	return &mn, nil
}

func (mn *MerkleNote) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(mn)
}
