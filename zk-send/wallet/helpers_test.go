package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kysee/zksend/zk-send/node"
	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/types"
	"github.com/stretchr/testify/require"
)

var errFake = errors.New("fake transport failure")

// ledgerTransport serves a node.Ledger without HTTP. Fields left nil fall
// through to the ledger.
type ledgerTransport struct {
	ledger *node.Ledger

	mtx          sync.Mutex
	records      map[string]*types.TransactionRecord
	txErr        error
	witnessErr   error
	witnessDelay func(index uint64) time.Duration
	heightErr    error
	broadcastFn  func(txHex string) (*types.BroadcastResponse, error)

	witnessCalls []uint64
	broadcasts   []string
}

var _ node.Transport = (*ledgerTransport)(nil)

func newLedgerTransport(t *testing.T, opts ...node.LedgerOption) *ledgerTransport {
	l, err := node.NewLedger(opts...)
	require.NoError(t, err)
	return &ledgerTransport{ledger: l, records: make(map[string]*types.TransactionRecord)}
}

func (f *ledgerTransport) GetTransaction(_ context.Context, hash string) (*types.TransactionRecord, error) {
	if f.txErr != nil {
		return nil, f.txErr
	}
	if rec, ok := f.records[hash]; ok {
		return rec, nil
	}
	return f.ledger.GetTransaction(hash)
}

func (f *ledgerTransport) GetNoteWitness(_ context.Context, index uint64) (*types.WitnessRecord, error) {
	f.mtx.Lock()
	f.witnessCalls = append(f.witnessCalls, index)
	f.mtx.Unlock()
	if f.witnessDelay != nil {
		time.Sleep(f.witnessDelay(index))
	}
	if f.witnessErr != nil {
		return nil, f.witnessErr
	}
	return f.ledger.Witness(index)
}

func (f *ledgerTransport) GetChainHeight(context.Context) (uint32, error) {
	if f.heightErr != nil {
		return 0, f.heightErr
	}
	return f.ledger.Height(), nil
}

func (f *ledgerTransport) BroadcastTransaction(_ context.Context, txHex string) (*types.BroadcastResponse, error) {
	f.mtx.Lock()
	f.broadcasts = append(f.broadcasts, txHex)
	f.mtx.Unlock()
	if f.broadcastFn != nil {
		return f.broadcastFn(txHex)
	}
	bz, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, err
	}
	return f.ledger.Broadcast(bz), nil
}

func newAccount(t *testing.T) *shield.Account {
	acct, err := shield.NewAccount(shield.GenerateSpendingKey())
	require.NoError(t, err)
	return acct
}

// encryptedNote returns the hex envelope of a fresh note from sender to owner.
func encryptedNote(t *testing.T, owner, sender *shield.Account, value uint64, memo string) string {
	suite := shield.Jubjub{}
	n, err := suite.NewOutput(owner.Address, sender.Address, value, memo)
	require.NoError(t, err)
	mn, err := suite.EncryptNote(n, sender.OutgoingViewKey)
	require.NoError(t, err)
	bz, err := mn.Bytes()
	require.NoError(t, err)
	return hex.EncodeToString(bz)
}

func indexPtr(i uint64) *uint64 { return &i }

func newTestWallet(t *testing.T, tr node.Transport, acct *shield.Account, opts ...Option) *Wallet {
	w, err := New(shield.Jubjub{}, tr, acct.IncomingViewKey, acct.OutgoingViewKey, opts...)
	require.NoError(t, err)
	return w
}
