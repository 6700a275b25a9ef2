package node

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/consensys/gnark-crypto/accumulator/merkletree"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/kysee/zksend/utils"
	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/types"
	"github.com/stretchr/testify/require"
)

func foldWitness(t *testing.T, leaf []byte, w *types.WitnessRecord) []byte {
	sum := utils.LeafHash(leaf)
	for _, item := range w.AuthPath {
		sib, err := hex.DecodeString(item.HashOfSibling)
		require.NoError(t, err)
		switch item.Side {
		case types.SideLeft:
			sum = utils.NodeHash(sum, sib)
		case types.SideRight:
			sum = utils.NodeHash(sib, sum)
		default:
			t.Fatalf("unknown side %q", item.Side)
		}
	}
	return sum
}

func TestProofSides(t *testing.T) {
	var leaves [][]byte
	for n := 1; n <= 19; n++ {
		leaves = append(leaves, utils.MiMCHash([]byte{byte(n)}))

		for idx := uint64(0); idx < uint64(n); idx++ {
			var buf bytes.Buffer
			for _, l := range leaves {
				buf.Write(l)
			}
			root, proofSet, numLeaves, err := merkletree.BuildReaderProof(&buf, utils.DefaultHasher(), 32, idx)
			require.NoError(t, err)
			require.Equal(t, uint64(n), numLeaves)
			require.True(t, merkletree.VerifyProof(utils.DefaultHasher(), root, proofSet, idx, numLeaves))

			sides := proofSides(idx, numLeaves, len(proofSet)-1)
			rec := &types.WitnessRecord{TreeSize: numLeaves, RootHash: hex.EncodeToString(root)}
			for i, s := range sides {
				rec.AuthPath = append(rec.AuthPath, types.AuthPathItem{Side: s, HashOfSibling: hex.EncodeToString(proofSet[i+1])})
			}
			require.Equal(t, root, foldWitness(t, leaves[idx], rec), "n=%d idx=%d", n, idx)
		}
	}
}

func toShieldWitness(t *testing.T, rec *types.WitnessRecord) *shield.Witness {
	w := &shield.Witness{TreeSize: rec.TreeSize}
	bz, err := hex.DecodeString(rec.RootHash)
	require.NoError(t, err)
	require.NoError(t, w.RootHash.SetBytesCanonical(bz))
	for _, item := range rec.AuthPath {
		bz, err := hex.DecodeString(item.HashOfSibling)
		require.NoError(t, err)
		var sib fr.Element
		require.NoError(t, sib.SetBytesCanonical(bz))
		side := shield.Left
		if item.Side == types.SideRight {
			side = shield.Right
		}
		w.AuthPath = append(w.AuthPath, shield.WitnessNode{Side: side, Sibling: sib})
	}
	return w
}

// mintTo mints value to acct and returns the decrypted note and its index.
func mintTo(t *testing.T, l *Ledger, acct *shield.Account, value uint64) (*shield.Note, uint64) {
	hash, err := l.Mint(map[types.Address]uint64{acct.Address: value})
	require.NoError(t, err)
	rec, err := l.GetTransaction(hash)
	require.NoError(t, err)
	require.Len(t, rec.NotesEncrypted, 1)

	bz, err := hex.DecodeString(rec.NotesEncrypted[0].Data)
	require.NoError(t, err)
	mn, err := shield.ReadMerkleNote(bz)
	require.NoError(t, err)
	n, err := shield.Jubjub{}.DecryptNoteForOwner(mn, acct.IncomingViewKey)
	require.NoError(t, err)
	require.NotNil(t, rec.NotesEncrypted[0].Index)
	return n, *rec.NotesEncrypted[0].Index
}

func TestLedgerMintAndWitness(t *testing.T) {
	l, err := NewLedger()
	require.NoError(t, err)
	alice, err := shield.NewAccount(shield.GenerateSpendingKey())
	require.NoError(t, err)
	bob, err := shield.NewAccount(shield.GenerateSpendingKey())
	require.NoError(t, err)

	hash, err := l.Mint(map[types.Address]uint64{alice.Address: 10, bob.Address: 20})
	require.NoError(t, err)
	require.Equal(t, uint32(2), l.Height())

	rec, err := l.GetTransaction(hash)
	require.NoError(t, err)
	require.Equal(t, hash, rec.Hash)
	require.Equal(t, uint64(2), rec.NotesCount)
	require.Equal(t, uint64(2), *rec.NoteTreeSize)
	require.Equal(t, "30", rec.Mints[0].Value)

	loc, err := l.LocateTransaction(hash)
	require.NoError(t, err)
	require.Len(t, loc.BlockHash, 64)

	for i, enc := range rec.NotesEncrypted {
		require.Equal(t, uint64(i), *enc.Index)
		bz, err := hex.DecodeString(enc.Data)
		require.NoError(t, err)
		mn, err := shield.ReadMerkleNote(bz)
		require.NoError(t, err)

		w, err := l.Witness(uint64(i))
		require.NoError(t, err)
		require.Equal(t, uint64(2), w.TreeSize)
		require.Equal(t, w.RootHash, hex.EncodeToString(foldWitness(t, mn.Commitment, w)))
	}

	_, err = l.Witness(2)
	require.ErrorIs(t, err, ErrNoteOutOfRange)
	_, err = l.GetTransaction("00")
	require.ErrorIs(t, err, ErrTxNotFound)
}

func TestLedgerImplicitIndex(t *testing.T) {
	l, err := NewLedger(WithImplicitNoteIndex())
	require.NoError(t, err)
	alice, err := shield.NewAccount(shield.GenerateSpendingKey())
	require.NoError(t, err)

	_, err = l.Mint(map[types.Address]uint64{alice.Address: 1})
	require.NoError(t, err)
	hash, err := l.Mint(map[types.Address]uint64{alice.Address: 2})
	require.NoError(t, err)

	rec, err := l.GetTransaction(hash)
	require.NoError(t, err)
	require.Nil(t, rec.NotesEncrypted[0].Index)
	require.Equal(t, uint64(2), *rec.NoteTreeSize)
}

func TestLedgerBroadcast(t *testing.T) {
	l, err := NewLedger(WithHeight(100))
	require.NoError(t, err)
	alice, err := shield.NewAccount(shield.GenerateSpendingKey())
	require.NoError(t, err)
	bob, err := shield.NewAccount(shield.GenerateSpendingKey())
	require.NoError(t, err)
	suite := shield.Jubjub{}

	note, index := mintTo(t, l, alice, 1000)
	wrec, err := l.Witness(index)
	require.NoError(t, err)

	build := func(expiration uint32, w *shield.Witness) []byte {
		b, err := suite.NewBuilder(alice.SpendingKey)
		require.NoError(t, err)
		require.NoError(t, b.AddSpend(note, w))
		out, err := suite.NewOutput(bob.Address, alice.Address, 400, "")
		require.NoError(t, err)
		require.NoError(t, b.AddOutput(out))
		b.SetExpiration(expiration)
		tx, err := b.Post(1)
		require.NoError(t, err)
		bz, err := tx.Bytes()
		require.NoError(t, err)
		return bz
	}

	resp := l.Broadcast([]byte("garbage"))
	require.False(t, resp.Success)
	require.Equal(t, ReasonInvalidFormat, *resp.Reason)

	resp = l.Broadcast(build(l.Height(), toShieldWitness(t, wrec)))
	require.False(t, resp.Success)
	require.Equal(t, ReasonExpired, *resp.Reason)

	valid := build(l.Height()+30, toShieldWitness(t, wrec))
	resp = l.Broadcast(valid)
	require.True(t, resp.Success, "%v", resp.Reason)
	require.Len(t, resp.Hash, 64)

	rec, err := l.GetTransaction(resp.Hash)
	require.NoError(t, err)
	require.Equal(t, uint64(1), rec.SpendsCount)
	require.Equal(t, "1", rec.Fee)
	require.Len(t, rec.NotesEncrypted, 2)

	// same note again, against a witness of the new tree
	wrec, err = l.Witness(index)
	require.NoError(t, err)
	resp = l.Broadcast(build(l.Height()+30, toShieldWitness(t, wrec)))
	require.False(t, resp.Success)
	require.Equal(t, ReasonDoubleSpend, *resp.Reason)

	// a ledger that never held the note does not know the root
	other, err := NewLedger()
	require.NoError(t, err)
	resp = other.Broadcast(valid)
	require.False(t, resp.Success)
	require.Equal(t, ReasonUnknownRoot, *resp.Reason)
}
