package wallet

import (
	"context"
	"fmt"

	"github.com/kysee/zksend/zk-send/node"
	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/types"
)

// DecryptedNote is a note one of the wallet's viewing keys opened, with
// where it sits in the note commitment tree.
type DecryptedNote struct {
	Owner   string // hex address
	Sender  string // hex address
	Value   uint64
	AssetID string
	Memo    string

	Index   uint64
	Indexed bool
	Role    Outcome

	Note *shield.Note
}

func newDecryptedNote(d Decryption, index uint64, indexed bool) *DecryptedNote {
	return &DecryptedNote{
		Owner:   d.Note.Owner.Hex(),
		Sender:  d.Note.Sender.Hex(),
		Value:   d.Note.Value,
		AssetID: d.Note.AssetID.Hex(),
		Memo:    d.Note.Memo.String(),
		Index:   index,
		Indexed: indexed,
		Role:    d.Outcome,
		Note:    d.Note,
	}
}

// NotesBySender groups decrypted notes by sender address. Senders iterate in
// the order their first note appeared in the transaction.
type NotesBySender struct {
	senders []string
	notes   map[string][]*DecryptedNote
}

func NewNotesBySender() *NotesBySender {
	return &NotesBySender{notes: make(map[string][]*DecryptedNote)}
}

func (m *NotesBySender) Add(n *DecryptedNote) {
	if _, ok := m.notes[n.Sender]; !ok {
		m.senders = append(m.senders, n.Sender)
	}
	m.notes[n.Sender] = append(m.notes[n.Sender], n)
}

func (m *NotesBySender) Senders() []string {
	return append([]string(nil), m.senders...)
}

func (m *NotesBySender) Notes(sender string) []*DecryptedNote {
	return m.notes[sender]
}

// All returns every note, sender by sender.
func (m *NotesBySender) All() []*DecryptedNote {
	var all []*DecryptedNote
	for _, s := range m.senders {
		all = append(all, m.notes[s]...)
	}
	return all
}

func (m *NotesBySender) Len() int {
	n := 0
	for _, notes := range m.notes {
		n += len(notes)
	}
	return n
}

// Aggregator fetches a transaction and decrypts the notes in it.
type Aggregator struct {
	transport node.Transport
	decryptor *NoteDecryptor
}

func NewAggregator(transport node.Transport, decryptor *NoteDecryptor) *Aggregator {
	return &Aggregator{transport: transport, decryptor: decryptor}
}

func (a *Aggregator) Aggregate(ctx context.Context, hash string) (*NotesBySender, error) {
	rec, err := a.transport.GetTransaction(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionUnavailable, err)
	}
	return a.AggregateRecord(rec)
}

// AggregateRecord decrypts the notes of an already fetched record.
func (a *Aggregator) AggregateRecord(rec *types.TransactionRecord) (*NotesBySender, error) {
	out := NewNotesBySender()
	for pos, enc := range rec.NotesEncrypted {
		d, err := a.decryptor.Decrypt(enc.Data)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", pos, err)
		}
		if !d.Owned() {
			continue
		}
		index, indexed := noteIndex(rec, enc, pos)
		out.Add(newDecryptedNote(d, index, indexed))
	}
	return out, nil
}

// noteIndex prefers the index the record carries. Without one it is
// noteTreeSize - notesCount + pos, if the record reports the tree size.
func noteIndex(rec *types.TransactionRecord, enc types.EncryptedNote, pos int) (uint64, bool) {
	if enc.Index != nil {
		return *enc.Index, true
	}
	if rec.NoteTreeSize == nil {
		return 0, false
	}
	count := rec.NotesCount
	if count == 0 {
		count = uint64(len(rec.NotesEncrypted))
	}
	if *rec.NoteTreeSize < count {
		return 0, false
	}
	return *rec.NoteTreeSize - count + uint64(pos), true
}
