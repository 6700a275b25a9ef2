package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

const (
	AddressSize = 32

	ver          = 0x01
	base58Prefix = "zs"
)

// Address is the public address of a shielded account: the compressed
// public key derived from its incoming viewing key.
type Address [AddressSize]byte

// Hex returns the canonical lowercase hex form. Ownership checks compare
// addresses in this form byte for byte.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// Base58 returns the base58check form, "zs" followed by the payload.
func (a Address) Base58() string {
	return EncodeAddress(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func EncodeAddress(payload []byte) string {
	return base58Prefix + base58.CheckEncode(payload, ver)
}

func DecodeAddress(addr string) ([]byte, error) {
	if !strings.HasPrefix(addr, base58Prefix) {
		return nil, fmt.Errorf("wrong prefix: got(%s)", addr[:min(2, len(addr))])
	}
	bz, _ver, err := base58.CheckDecode(addr[2:])
	if err != nil {
		return nil, err
	}
	if _ver != ver {
		return nil, fmt.Errorf("wrong version: expected(%d), got(%d)", ver, _ver)
	}
	return bz, nil
}

// AddressFromBytes copies a 32 byte payload into an Address.
func AddressFromBytes(bz []byte) (Address, error) {
	var a Address
	if len(bz) != AddressSize {
		return a, fmt.Errorf("wrong address length: expected(%d), got(%d)", AddressSize, len(bz))
	}
	copy(a[:], bz)
	return a, nil
}

// ParseAddress accepts either the hex or the base58check form.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, base58Prefix) {
		bz, err := DecodeAddress(s)
		if err != nil {
			return Address{}, err
		}
		return AddressFromBytes(bz)
	}
	bz, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex address: %w", err)
	}
	return AddressFromBytes(bz)
}
