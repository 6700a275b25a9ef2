package shield

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kysee/zksend/zk-send/crypto"
	"github.com/kysee/zksend/zk-send/types"
)

var ErrCannotDecrypt = errors.New("cannot decrypt note")

// encryptNote seals n to its owner and, through ovk, to its sender.
func encryptNote(n *Note, ovk OutgoingViewKey) (*MerkleNote, error) {
	ownerPub, err := crypto.PubFromBytes(n.Owner[:])
	if err != nil {
		return nil, fmt.Errorf("invalid owner address: %w", err)
	}

	eskSeed := types.RandBytes(crypto.SeedSize)
	esk, err := crypto.KeyFromSeed(eskSeed)
	if err != nil {
		return nil, err
	}
	epk := esk.PublicKey.Bytes()

	shared, err := crypto.ECDHEComputeSharedSecret(esk, ownerPub)
	if err != nil {
		return nil, err
	}

	pt, err := rlp.EncodeToBytes(n.plaintext())
	if err != nil {
		return nil, err
	}
	enc, err := crypto.SealWithSecret(shared, pt, epk)
	if err != nil {
		return nil, err
	}

	cm := n.Commitment()
	ock, err := outgoingCipherKey(ovk, epk, cm)
	if err != nil {
		return nil, err
	}
	out, err := crypto.SealWithSecret(ock, append(n.Owner[:], eskSeed...), cm)
	if err != nil {
		return nil, err
	}

	return &MerkleNote{
		Commitment:    cm,
		EphemeralKey:  epk,
		EncCiphertext: enc,
		OutCiphertext: out,
	}, nil
}

// decryptForOwner opens the note with the ECDHE secret of the incoming view key.
func decryptForOwner(mn *MerkleNote, ivk IncomingViewKey) (*Note, error) {
	prv, err := ivk.privateKey()
	if err != nil {
		return nil, err
	}
	epk, err := crypto.PubFromBytes(mn.EphemeralKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotDecrypt, err)
	}
	shared, err := crypto.ECDHEComputeSharedSecret(prv, epk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotDecrypt, err)
	}
	owner, err := types.AddressFromBytes(prv.PublicKey.Bytes())
	if err != nil {
		return nil, err
	}
	return openNote(mn, shared, owner)
}

// decryptForSpender recovers the owner and ephemeral secret from the outgoing
// ciphertext and then opens the note the way its owner would.
func decryptForSpender(mn *MerkleNote, ovk OutgoingViewKey) (*Note, error) {
	ock, err := outgoingCipherKey(ovk, mn.EphemeralKey, mn.Commitment)
	if err != nil {
		return nil, err
	}
	out, err := crypto.OpenWithSecret(ock, mn.OutCiphertext, mn.Commitment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotDecrypt, err)
	}
	if len(out) != types.AddressSize+crypto.SeedSize {
		return nil, fmt.Errorf("%w: outgoing plaintext length %d", ErrCannotDecrypt, len(out))
	}

	owner, err := types.AddressFromBytes(out[:types.AddressSize])
	if err != nil {
		return nil, err
	}
	ownerPub, err := crypto.PubFromBytes(owner[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotDecrypt, err)
	}
	esk, err := crypto.KeyFromSeed(out[types.AddressSize:])
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(esk.PublicKey.Bytes(), mn.EphemeralKey) {
		return nil, fmt.Errorf("%w: ephemeral key mismatch", ErrCannotDecrypt)
	}

	shared, err := crypto.ECDHEComputeSharedSecret(esk, ownerPub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotDecrypt, err)
	}
	return openNote(mn, shared, owner)
}

func openNote(mn *MerkleNote, shared []byte, owner types.Address) (*Note, error) {
	pt, err := crypto.OpenWithSecret(shared, mn.EncCiphertext, mn.EphemeralKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotDecrypt, err)
	}

	var np notePlaintext
	if err := rlp.DecodeBytes(pt, &np); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotDecrypt, err)
	}
	n, err := np.toNote(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotDecrypt, err)
	}
	if !bytes.Equal(n.Commitment(), mn.Commitment) {
		return nil, fmt.Errorf("%w: commitment mismatch", ErrCannotDecrypt)
	}
	return n, nil
}

func outgoingCipherKey(ovk OutgoingViewKey, epk, cm []byte) ([]byte, error) {
	return crypto.DeriveKey(ovk[:], epk, cm)
}
