package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncryptedNote is one serialized note envelope of a transaction, hex encoded
// on the wire. Index is its position in the note commitment tree when the
// backend reports it.
type EncryptedNote struct {
	Data  string
	Index *uint64
}

type encryptedNoteJSON struct {
	NoteData  string  `json:"noteData"`
	NoteIndex *uint64 `json:"noteIndex,omitempty"`
}

// UnmarshalJSON accepts both a bare hex string and a
// {"noteData": ..., "noteIndex": ...} object.
func (n *EncryptedNote) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n.Data, n.Index = s, nil
		return nil
	}

	var obj encryptedNoteJSON
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("encrypted note: %w", err)
	}
	n.Data, n.Index = obj.NoteData, obj.NoteIndex
	return nil
}

func (n EncryptedNote) MarshalJSON() ([]byte, error) {
	if n.Index == nil {
		return json.Marshal(n.Data)
	}
	return json.Marshal(encryptedNoteJSON{NoteData: n.Data, NoteIndex: n.Index})
}

type Asset struct {
	AssetID string `json:"assetId"`
	Value   string `json:"value"`
}

// TransactionRecord is a ledger transaction as served by the node.
type TransactionRecord struct {
	Hash           string          `json:"hash,omitempty"`
	Fee            string          `json:"fee"`
	Expiration     uint64          `json:"expiration"`
	NoteSize       uint64          `json:"noteSize"`
	NotesCount     uint64          `json:"notesCount"`
	SpendsCount    uint64          `json:"spendsCount"`
	Signature      string          `json:"signature"`
	NotesEncrypted []EncryptedNote `json:"notesEncrypted"`
	Mints          []Asset         `json:"mints"`
	Burns          []Asset         `json:"burns"`

	// NoteTreeSize is the size of the note commitment tree right after this
	// transaction was applied. Only needed when notes carry no index.
	NoteTreeSize *uint64 `json:"noteTreeSize,omitempty"`
}

// TransactionLocation is the indexer's answer to a hash lookup.
type TransactionLocation struct {
	Hash      string `json:"hash"`
	BlockHash string `json:"blockHash"`
}

type BlockIdentifier struct {
	Index string `json:"index"`
	Hash  string `json:"hash"`
}

type ChainInfo struct {
	CurrentBlockIdentifier BlockIdentifier `json:"currentBlockIdentifier"`
}

// BroadcastResponse is the node's verdict on a submitted transaction.
type BroadcastResponse struct {
	Success bool    `json:"success"`
	Hash    string  `json:"hash,omitempty"`
	Reason  *string `json:"reason,omitempty"`
}
