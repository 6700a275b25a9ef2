package wallet

import (
	"context"
	"testing"

	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/types"
	"github.com/stretchr/testify/require"
)

func TestNoteDecryptorOutcomes(t *testing.T) {
	alice := newAccount(t)
	bob := newAccount(t)
	carol := newAccount(t)

	d := NewNoteDecryptor(shield.Jubjub{}, alice.IncomingViewKey, alice.OutgoingViewKey)

	res, err := d.Decrypt(encryptedNote(t, alice, bob, 7, "to alice"))
	require.NoError(t, err)
	require.Equal(t, OutcomeOwner, res.Outcome)
	require.Equal(t, uint64(7), res.Note.Value)
	require.Equal(t, "to alice", res.Note.Memo.String())

	res, err = d.Decrypt(encryptedNote(t, bob, alice, 8, ""))
	require.NoError(t, err)
	require.Equal(t, OutcomeSpender, res.Outcome)
	require.Equal(t, bob.Address, res.Note.Owner)

	res, err = d.Decrypt(encryptedNote(t, bob, carol, 9, ""))
	require.NoError(t, err)
	require.Equal(t, OutcomeNotOwned, res.Outcome)
	require.False(t, res.Owned())
	require.Nil(t, res.Note)

	_, err = d.Decrypt("not hex")
	require.ErrorIs(t, err, ErrMalformedInput)
	_, err = d.Decrypt("c0")
	require.ErrorIs(t, err, ErrMalformedInput)
}

// mixedOwnerTx is a transaction with a 500 note for alice and a note for a
// stranger.
func mixedOwnerTx(t *testing.T, tr *ledgerTransport, alice *shield.Account) string {
	bob := newAccount(t)
	stranger := newAccount(t)
	tr.records["A"] = &types.TransactionRecord{
		Fee:        "1",
		NotesCount: 2,
		NotesEncrypted: []types.EncryptedNote{
			{Data: encryptedNote(t, alice, bob, 500, "hi"), Index: indexPtr(40)},
			{Data: encryptedNote(t, stranger, bob, 900, ""), Index: indexPtr(41)},
		},
	}
	return "A"
}

func TestAggregateSkipsForeignNotes(t *testing.T) {
	tr := newLedgerTransport(t)
	alice := newAccount(t)
	hash := mixedOwnerTx(t, tr, alice)

	agg := NewAggregator(tr, NewNoteDecryptor(shield.Jubjub{}, alice.IncomingViewKey, alice.OutgoingViewKey))
	notes, err := agg.Aggregate(context.Background(), hash)
	require.NoError(t, err)

	require.Len(t, notes.Senders(), 1)
	require.Equal(t, 1, notes.Len())
	n := notes.All()[0]
	require.Equal(t, uint64(500), n.Value)
	require.Equal(t, alice.Address.Hex(), n.Owner)
	require.Equal(t, uint64(40), n.Index)
	require.True(t, n.Indexed)
	require.Equal(t, "hi", n.Memo)
	require.Equal(t, shield.NativeAssetID.Hex(), n.AssetID)

	sel, err := Select(notes, alice.Address.Hex(), 100)
	require.NoError(t, err)
	require.Equal(t, uint64(500), sel.Total.Uint64())
	require.Len(t, sel.Spends, 1)

	// equal to the total is not enough
	_, err = Select(notes, alice.Address.Hex(), 500)
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestAggregateGroupsBySender(t *testing.T) {
	tr := newLedgerTransport(t)
	alice, bob, carol := newAccount(t), newAccount(t), newAccount(t)

	tr.records["G"] = &types.TransactionRecord{
		NotesCount: 4,
		NotesEncrypted: []types.EncryptedNote{
			{Data: encryptedNote(t, alice, carol, 1, ""), Index: indexPtr(0)},
			{Data: encryptedNote(t, alice, bob, 2, ""), Index: indexPtr(1)},
			{Data: encryptedNote(t, alice, carol, 3, ""), Index: indexPtr(2)},
			// sent by alice, read through her outgoing key
			{Data: encryptedNote(t, bob, alice, 4, ""), Index: indexPtr(3)},
		},
	}

	agg := NewAggregator(tr, NewNoteDecryptor(shield.Jubjub{}, alice.IncomingViewKey, alice.OutgoingViewKey))
	notes, err := agg.Aggregate(context.Background(), "G")
	require.NoError(t, err)

	require.Equal(t, []string{carol.Address.Hex(), bob.Address.Hex(), alice.Address.Hex()}, notes.Senders())
	require.Len(t, notes.Notes(carol.Address.Hex()), 2)
	require.Equal(t, uint64(3), notes.Notes(carol.Address.Hex())[1].Value)
	require.Equal(t, OutcomeSpender, notes.Notes(alice.Address.Hex())[0].Role)

	_, total := Owned(notes, alice.Address.Hex())
	require.Equal(t, uint64(6), total.Uint64())
}

func TestAggregateImplicitIndex(t *testing.T) {
	tr := newLedgerTransport(t)
	alice, bob := newAccount(t), newAccount(t)
	treeSize := uint64(10)

	tr.records["I"] = &types.TransactionRecord{
		NotesCount:   3,
		NoteTreeSize: &treeSize,
		NotesEncrypted: []types.EncryptedNote{
			{Data: encryptedNote(t, bob, bob, 1, "")},
			{Data: encryptedNote(t, alice, bob, 2, "")},
			{Data: encryptedNote(t, alice, bob, 3, ""), Index: indexPtr(99)},
		},
	}
	tr.records["U"] = &types.TransactionRecord{
		NotesCount:     1,
		NotesEncrypted: []types.EncryptedNote{{Data: encryptedNote(t, alice, bob, 2, "")}},
	}

	agg := NewAggregator(tr, NewNoteDecryptor(shield.Jubjub{}, alice.IncomingViewKey, alice.OutgoingViewKey))
	notes, err := agg.Aggregate(context.Background(), "I")
	require.NoError(t, err)
	all := notes.All()
	require.Len(t, all, 2)
	// 10 - 3 + 1
	require.Equal(t, uint64(8), all[0].Index)
	require.True(t, all[0].Indexed)
	// an explicit index wins
	require.Equal(t, uint64(99), all[1].Index)

	notes, err = agg.Aggregate(context.Background(), "U")
	require.NoError(t, err)
	require.False(t, notes.All()[0].Indexed)
	_, err = Select(notes, alice.Address.Hex(), 1)
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestAggregateFailures(t *testing.T) {
	tr := newLedgerTransport(t)
	alice := newAccount(t)
	agg := NewAggregator(tr, NewNoteDecryptor(shield.Jubjub{}, alice.IncomingViewKey, alice.OutgoingViewKey))

	_, err := agg.Aggregate(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTransactionUnavailable)

	tr.txErr = errFake
	_, err = agg.Aggregate(context.Background(), "any")
	require.ErrorIs(t, err, ErrTransactionUnavailable)
	tr.txErr = nil

	tr.records["M"] = &types.TransactionRecord{
		NotesEncrypted: []types.EncryptedNote{{Data: "zz"}},
	}
	_, err = agg.Aggregate(context.Background(), "M")
	require.ErrorIs(t, err, ErrMalformedInput)
}
