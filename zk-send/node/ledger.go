package node

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/consensys/gnark-crypto/accumulator/merkletree"
	"github.com/kysee/zksend/utils"
	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/types"
	"golang.org/x/crypto/blake2b"
)

// rejection reasons returned in BroadcastResponse.Reason
const (
	ReasonExpired       = "expired"
	ReasonUnknownRoot   = "unknown root"
	ReasonDoubleSpend   = "double spend"
	ReasonInvalidFormat = "invalid transaction"
)

var (
	ErrTxNotFound     = errors.New("transaction not found")
	ErrNoteOutOfRange = errors.New("note index out of range")
)

// Ledger is an in-memory shielded ledger: a note commitment tree, a nullifier
// set and one block per accepted transaction. It is meant for development
// and tests, not consensus.
type Ledger struct {
	mtx sync.RWMutex

	noteCommitmentsTree *merkletree.Tree
	noteCommitments     [][]byte
	roots               map[string]uint64 // root -> tree size it was taken at
	nullifiers          map[string]struct{}

	txs      map[string]*types.TransactionRecord
	txBlocks map[string]string
	height   uint32

	implicitIndex bool

	mintAcc *shield.Account
}

type LedgerOption func(*Ledger)

// WithImplicitNoteIndex serves records without per note indices. Clients
// derive them from noteTreeSize.
func WithImplicitNoteIndex() LedgerOption {
	return func(l *Ledger) { l.implicitIndex = true }
}

// WithHeight sets the starting chain height.
func WithHeight(h uint32) LedgerOption {
	return func(l *Ledger) { l.height = h }
}

func NewLedger(opts ...LedgerOption) (*Ledger, error) {
	mintAcc, err := shield.NewAccount(shield.GenerateSpendingKey())
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		noteCommitmentsTree: merkletree.New(utils.DefaultHasher()),
		roots:               make(map[string]uint64),
		nullifiers:          make(map[string]struct{}),
		txs:                 make(map[string]*types.TransactionRecord),
		txBlocks:            make(map[string]string),
		height:              1,
		mintAcc:             mintAcc,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// MintAddress is the sender of every minted note.
func (l *Ledger) MintAddress() types.Address {
	return l.mintAcc.Address
}

// Mint creates one transaction with a note per owner, in address order, and
// returns its hash.
func (l *Ledger) Mint(outputs map[types.Address]uint64) (string, error) {
	owners := make([]types.Address, 0, len(outputs))
	for a := range outputs {
		owners = append(owners, a)
	}
	slices.SortFunc(owners, func(a, b types.Address) int {
		return bytes.Compare(a[:], b[:])
	})

	suite := shield.Jubjub{}
	var notes [][]byte
	var total uint64
	for _, owner := range owners {
		n, err := suite.NewOutput(owner, l.mintAcc.Address, outputs[owner], "mint")
		if err != nil {
			return "", err
		}
		mn, err := suite.EncryptNote(n, l.mintAcc.OutgoingViewKey)
		if err != nil {
			return "", err
		}
		bz, err := mn.Bytes()
		if err != nil {
			return "", err
		}
		notes = append(notes, bz)
		total += outputs[owner]
	}
	if len(notes) == 0 {
		return "", errors.New("nothing to mint")
	}

	h := blake2b.Sum256(bytes.Join(notes, nil))
	rec := &types.TransactionRecord{
		Fee:   "0",
		Mints: []types.Asset{{AssetID: shield.NativeAssetID.Hex(), Value: strconv.FormatUint(total, 10)}},
	}

	l.mtx.Lock()
	defer l.mtx.Unlock()

	hash := hex.EncodeToString(h[:])
	if _, ok := l.txs[hash]; ok {
		return "", errors.New("duplicate mint")
	}
	l.appendTx(hash, rec, notes)
	return hash, nil
}

// Broadcast applies a serialized transaction. A transaction the ledger
// declines is not an error: the response carries the reason.
func (l *Ledger) Broadcast(txBytes []byte) *types.BroadcastResponse {
	tx, err := shield.ReadTransaction(txBytes)
	if err != nil {
		return rejected(ReasonInvalidFormat)
	}
	if err := tx.Verify(); err != nil {
		return rejected(ReasonInvalidFormat)
	}
	h, err := tx.Hash()
	if err != nil {
		return rejected(ReasonInvalidFormat)
	}
	hash := hex.EncodeToString(h)

	l.mtx.Lock()
	defer l.mtx.Unlock()

	if tx.Expiration != 0 && tx.Expiration <= l.height {
		return rejected(ReasonExpired)
	}
	for _, sp := range tx.Spends {
		size, ok := l.roots[string(sp.RootHash)]
		if !ok || size != sp.TreeSize {
			return rejected(ReasonUnknownRoot)
		}
		if _, ok := l.nullifiers[string(sp.Nullifier)]; ok {
			return rejected(ReasonDoubleSpend)
		}
	}
	for _, sp := range tx.Spends {
		l.nullifiers[string(sp.Nullifier)] = struct{}{}
	}

	rec := &types.TransactionRecord{
		Fee:         strconv.FormatUint(tx.Fee, 10),
		Expiration:  uint64(tx.Expiration),
		SpendsCount: uint64(len(tx.Spends)),
		Signature:   hex.EncodeToString(tx.Signature),
	}
	l.appendTx(hash, rec, tx.Notes)
	return &types.BroadcastResponse{Success: true, Hash: hash}
}

// appendTx pushes the notes into the tree and records the transaction in a
// new block. l.mtx must be held.
func (l *Ledger) appendTx(hash string, rec *types.TransactionRecord, notes [][]byte) {
	for i, bz := range notes {
		idx := l.addNoteCommitment(bz)
		enc := types.EncryptedNote{Data: hex.EncodeToString(bz)}
		if !l.implicitIndex {
			enc.Index = &idx
		}
		rec.NotesEncrypted = append(rec.NotesEncrypted, enc)
		if i == 0 {
			rec.NoteSize = uint64(len(bz))
		}
	}
	treeSize := uint64(len(l.noteCommitments))
	rec.Hash = hash
	rec.NotesCount = uint64(len(notes))
	rec.NoteTreeSize = &treeSize

	l.height++
	var hb [4]byte
	binary.BigEndian.PutUint32(hb[:], l.height)
	blockHash := blake2b.Sum256(append(hb[:], hash...))

	l.txs[hash] = rec
	l.txBlocks[hash] = hex.EncodeToString(blockHash[:])
}

func (l *Ledger) addNoteCommitment(merkleNote []byte) uint64 {
	// envelopes were checked by Verify or built by Mint
	mn, _ := shield.ReadMerkleNote(merkleNote)
	l.noteCommitments = append(l.noteCommitments, mn.Commitment)
	l.noteCommitmentsTree.Push(mn.Commitment)
	l.roots[string(l.noteCommitmentsTree.Root())] = uint64(len(l.noteCommitments))
	return uint64(len(l.noteCommitments) - 1)
}

func (l *Ledger) GetTransaction(hash string) (*types.TransactionRecord, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	rec, ok := l.txs[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, hash)
	}
	cp := *rec
	return &cp, nil
}

func (l *Ledger) LocateTransaction(hash string) (*types.TransactionLocation, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	bh, ok := l.txBlocks[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, hash)
	}
	return &types.TransactionLocation{Hash: hash, BlockHash: bh}, nil
}

func (l *Ledger) Height() uint32 {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.height
}

// Witness returns the authentication path of the note at index against the
// current tree.
func (l *Ledger) Witness(index uint64) (*types.WitnessRecord, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	if index >= uint64(len(l.noteCommitments)) {
		return nil, fmt.Errorf("%w: %d", ErrNoteOutOfRange, index)
	}

	var buf bytes.Buffer
	for _, c := range l.noteCommitments {
		buf.Write(c)
	}
	root, proofSet, numLeaves, err := merkletree.BuildReaderProof(
		&buf,
		utils.DefaultHasher(),
		utils.DefaultHasher().Size(),
		index,
	)
	if err != nil {
		return nil, err
	}

	// proofSet[0] is the leaf itself
	sides := proofSides(index, numLeaves, len(proofSet)-1)
	path := make([]types.AuthPathItem, len(sides))
	for i, side := range sides {
		path[i] = types.AuthPathItem{
			Side:          side,
			HashOfSibling: hex.EncodeToString(proofSet[i+1]),
		}
	}
	return &types.WitnessRecord{
		TreeSize: numLeaves,
		RootHash: hex.EncodeToString(root),
		AuthPath: path,
	}, nil
}

// proofSides tells, for each sibling of a merkletree proof, whether the
// running hash is the left or the right child. It walks the proof the way
// merkletree.VerifyProof does.
func proofSides(index, numLeaves uint64, steps int) []string {
	sides := make([]string, 0, steps)
	height := 1
	stableEnd := index
	for len(sides) < steps {
		start := (index >> uint(height)) << uint(height)
		end := start + (1 << uint(height)) - 1
		if end >= numLeaves {
			break
		}
		stableEnd = end
		if index-start < 1<<uint(height-1) {
			sides = append(sides, types.SideLeft)
		} else {
			sides = append(sides, types.SideRight)
		}
		height++
	}
	if len(sides) < steps && stableEnd != numLeaves-1 {
		sides = append(sides, types.SideLeft)
	}
	for len(sides) < steps {
		sides = append(sides, types.SideRight)
	}
	return sides
}

func rejected(reason string) *types.BroadcastResponse {
	return &types.BroadcastResponse{Success: false, Reason: &reason}
}
