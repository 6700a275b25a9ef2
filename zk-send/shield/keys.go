package shield

import (
	"encoding/hex"
	"fmt"
	"strings"

	jubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/kysee/zksend/zk-send/crypto"
	"github.com/kysee/zksend/zk-send/types"
)

const KeySize = 32

// domain tags of the keys derived from a spending key
var (
	tagIncomingView = []byte("zksend/ivk")
	tagOutgoingView = []byte("zksend/ovk")
	tagSpendAuth    = []byte("zksend/ask")
	tagNullifier    = []byte("zksend/nk")
)

// SpendingKey is the root secret of an account. Every other key is derived
// from it and it never leaves the local process.
type SpendingKey [KeySize]byte

// IncomingViewKey is the seed of the key pair notes are encrypted to. Its
// public half is the account address.
type IncomingViewKey [KeySize]byte

// OutgoingViewKey lets the sender recover the notes it created.
type OutgoingViewKey [KeySize]byte

func GenerateSpendingKey() SpendingKey {
	var sk SpendingKey
	copy(sk[:], types.RandBytes(KeySize))
	return sk
}

func ParseSpendingKey(s string) (SpendingKey, error) {
	var sk SpendingKey
	return sk, parseKey(s, sk[:], "spending key")
}

func ParseIncomingViewKey(s string) (IncomingViewKey, error) {
	var ivk IncomingViewKey
	return ivk, parseKey(s, ivk[:], "incoming view key")
}

func ParseOutgoingViewKey(s string) (OutgoingViewKey, error) {
	var ovk OutgoingViewKey
	return ovk, parseKey(s, ovk[:], "outgoing view key")
}

func parseKey(s string, dst []byte, what string) error {
	bz, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", what, err)
	}
	if len(bz) != len(dst) {
		return fmt.Errorf("invalid %s: expected %d bytes, got %d", what, len(dst), len(bz))
	}
	copy(dst, bz)
	return nil
}

func (sk SpendingKey) Hex() string { return hex.EncodeToString(sk[:]) }

func (sk SpendingKey) IncomingViewKey() IncomingViewKey {
	var ivk IncomingViewKey
	copy(ivk[:], sk.derive(tagIncomingView))
	return ivk
}

func (sk SpendingKey) OutgoingViewKey() OutgoingViewKey {
	var ovk OutgoingViewKey
	copy(ovk[:], sk.derive(tagOutgoingView))
	return ovk
}

func (sk SpendingKey) PublicAddress() (types.Address, error) {
	return sk.IncomingViewKey().PublicAddress()
}

func (sk SpendingKey) spendAuthKey() (*jubjub.PrivateKey, error) {
	return crypto.KeyFromSeed(sk.derive(tagSpendAuth))
}

func (sk SpendingKey) nullifierKey() []byte {
	return sk.derive(tagNullifier)
}

func (sk SpendingKey) derive(tag []byte) []byte {
	// the key is always KeySize bytes, so DeriveKey cannot fail
	bz, _ := crypto.DeriveKey(sk[:], tag)
	return bz
}

func (ivk IncomingViewKey) Hex() string { return hex.EncodeToString(ivk[:]) }

func (ivk IncomingViewKey) privateKey() (*jubjub.PrivateKey, error) {
	return crypto.KeyFromSeed(ivk[:])
}

// PublicAddress is the compressed public key of the incoming view key.
func (ivk IncomingViewKey) PublicAddress() (types.Address, error) {
	prv, err := ivk.privateKey()
	if err != nil {
		return types.Address{}, err
	}
	return types.AddressFromBytes(prv.PublicKey.Bytes())
}

func (ovk OutgoingViewKey) Hex() string { return hex.EncodeToString(ovk[:]) }

// Account bundles the keys of one spending key for display.
type Account struct {
	SpendingKey     SpendingKey
	IncomingViewKey IncomingViewKey
	OutgoingViewKey OutgoingViewKey
	Address         types.Address
}

func NewAccount(sk SpendingKey) (*Account, error) {
	addr, err := sk.PublicAddress()
	if err != nil {
		return nil, err
	}
	return &Account{
		SpendingKey:     sk,
		IncomingViewKey: sk.IncomingViewKey(),
		OutgoingViewKey: sk.OutgoingViewKey(),
		Address:         addr,
	}, nil
}
