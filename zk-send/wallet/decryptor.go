package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kysee/zksend/zk-send/shield"
)

// Outcome tells which key, if any, opened a note.
type Outcome int

const (
	OutcomeNotOwned Outcome = iota
	OutcomeOwner
	OutcomeSpender
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOwner:
		return "owner"
	case OutcomeSpender:
		return "spender"
	default:
		return "not-owned"
	}
}

// Decryption is the result of trial decrypting one note. Note is nil iff
// Outcome is OutcomeNotOwned.
type Decryption struct {
	Outcome Outcome
	Note    *shield.Note
}

func (d Decryption) Owned() bool { return d.Outcome != OutcomeNotOwned }

// NoteDecryptor trial decrypts notes with one pair of viewing keys.
type NoteDecryptor struct {
	suite shield.Suite
	ivk   shield.IncomingViewKey
	ovk   shield.OutgoingViewKey
}

func NewNoteDecryptor(suite shield.Suite, ivk shield.IncomingViewKey, ovk shield.OutgoingViewKey) *NoteDecryptor {
	return &NoteDecryptor{suite: suite, ivk: ivk, ovk: ovk}
}

// Decrypt tries the incoming view key, then the outgoing one. A note neither
// opens is not an error. Bytes that are not a note envelope are.
func (d *NoteDecryptor) Decrypt(blobHex string) (Decryption, error) {
	bz, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(blobHex), "0x"))
	if err != nil {
		return Decryption{}, fmt.Errorf("%w: note is not hex: %v", ErrMalformedInput, err)
	}
	mn, err := shield.ReadMerkleNote(bz)
	if err != nil {
		return Decryption{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	if n, err := d.suite.DecryptNoteForOwner(mn, d.ivk); err == nil {
		return Decryption{Outcome: OutcomeOwner, Note: n}, nil
	}
	if n, err := d.suite.DecryptNoteForSpender(mn, d.ovk); err == nil {
		return Decryption{Outcome: OutcomeSpender, Note: n}, nil
	}
	return Decryption{Outcome: OutcomeNotOwned}, nil
}
