package wallet

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/kysee/zksend/zk-send/node"
	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Wallet runs the decrypt and causal send flows for one pair of viewing keys.
type Wallet struct {
	suite      shield.Suite
	transport  node.Transport
	address    types.Address
	aggregator *Aggregator
	sender     *Orchestrator
	log        zerolog.Logger
}

type Option func(*options)

type options struct {
	log      zerolog.Logger
	parallel bool
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithParallelWitnessFetch(on bool) Option {
	return func(o *options) { o.parallel = on }
}

func New(suite shield.Suite, transport node.Transport, ivk shield.IncomingViewKey, ovk shield.OutgoingViewKey, opts ...Option) (*Wallet, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	addr, err := suite.PublicAddress(ivk)
	if err != nil {
		return nil, err
	}
	log := o.log.With().Str("module", "wallet").Str("address", addr.Hex()).Logger()

	return &Wallet{
		suite:      suite,
		transport:  transport,
		address:    addr,
		aggregator: NewAggregator(transport, NewNoteDecryptor(suite, ivk, ovk)),
		sender: NewOrchestrator(suite, transport,
			WithParallelWitness(o.parallel),
			WithOrchestratorLogger(log)),
		log: log,
	}, nil
}

func (w *Wallet) Address() types.Address { return w.address }

type DecryptReport struct {
	Hash    string
	Address types.Address
	Notes   *NotesBySender
	// Received is the value of the notes owned by Address.
	Received *uint256.Int
}

func (w *Wallet) Decrypt(ctx context.Context, hash string) (*DecryptReport, error) {
	notes, err := w.aggregator.Aggregate(ctx, hash)
	if err != nil {
		return nil, err
	}
	_, received := Owned(notes, w.address.Hex())
	w.log.Debug().Str("hash", hash).Int("notes", notes.Len()).Msg("decrypted transaction")

	return &DecryptReport{
		Hash:     hash,
		Address:  w.address,
		Notes:    notes,
		Received: received,
	}, nil
}

type CausalSendRequest struct {
	Hash        string
	SpendingKey shield.SpendingKey
	Receiver    types.Address
	Amount      decimal.Decimal
	Fee         uint64
	Memo        string
	Expiration  *uint32
}

// CausalSend spends every note the wallet received in Hash, sending Amount
// to Receiver and the rest, less the fee, back to itself.
func (w *Wallet) CausalSend(ctx context.Context, req CausalSendRequest) (*SendResult, error) {
	amount, err := ScaleAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	notes, err := w.aggregator.Aggregate(ctx, req.Hash)
	if err != nil {
		return nil, err
	}
	sel, err := Select(notes, w.address.Hex(), amount)
	if err != nil {
		return nil, err
	}
	w.log.Info().
		Str("hash", req.Hash).
		Int("spends", len(sel.Spends)).
		Str("total", sel.Total.Dec()).
		Msg("selected notes")

	// the output pays exactly the subunits Select checked
	return w.sender.send(ctx, SendRequest{
		SpendingKey: req.SpendingKey,
		Spends:      sel.Spends,
		Receiver:    req.Receiver,
		Amount:      req.Amount,
		Fee:         req.Fee,
		Memo:        req.Memo,
		Expiration:  req.Expiration,
	}, amount)
}
