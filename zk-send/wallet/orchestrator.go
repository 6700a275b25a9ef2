package wallet

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/kysee/zksend/zk-send/config"
	"github.com/kysee/zksend/zk-send/node"
	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// NoReasonSupplied is the rejection reason when the node gives none.
const NoReasonSupplied = "no reason supplied"

type Status int

const (
	StatusSuccess Status = iota
	StatusRejected
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "rejected"
}

// SendResult is how the ledger answered a broadcast. Local failures are
// returned as errors instead.
type SendResult struct {
	Status     Status
	Hash       string
	Reason     string
	Amount     uint64
	Expiration uint32
}

type SendRequest struct {
	SpendingKey shield.SpendingKey
	Spends      []SpendCandidate
	Receiver    types.Address
	Amount      decimal.Decimal
	Fee         uint64
	Memo        string
	// Expiration is used as is when set. Otherwise the chain height plus
	// config.ExpirationDelta.
	Expiration *uint32
}

// Orchestrator builds, verifies and broadcasts a transaction spending
// already selected notes.
type Orchestrator struct {
	suite     shield.Suite
	transport node.Transport
	parallel  bool
	log       zerolog.Logger
}

type OrchestratorOption func(*Orchestrator)

// WithParallelWitness fetches the witnesses of all spends concurrently.
// Spends are still added in selection order.
func WithParallelWitness(on bool) OrchestratorOption {
	return func(o *Orchestrator) { o.parallel = on }
}

func WithOrchestratorLogger(log zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = log }
}

func NewOrchestrator(suite shield.Suite, transport node.Transport, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		suite:     suite,
		transport: transport,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	amount, err := ScaleAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	return o.send(ctx, req, amount)
}

// send builds and broadcasts req paying amount subunits. req.Amount is not
// read again.
func (o *Orchestrator) send(ctx context.Context, req SendRequest, amount uint64) (*SendResult, error) {
	if len(req.Spends) == 0 {
		return nil, ErrNotAReceiver
	}

	sender, err := o.suite.PublicAddress(req.SpendingKey.IncomingViewKey())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofOrSignature, err)
	}
	builder, err := o.suite.NewBuilder(req.SpendingKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofOrSignature, err)
	}

	witnesses, err := o.fetchWitnesses(ctx, req.Spends)
	if err != nil {
		return nil, err
	}
	for i, sp := range req.Spends {
		if err := builder.AddSpend(sp.Note, witnesses[i]); err != nil {
			return nil, fmt.Errorf("%w: spend of note %d: %v", ErrProofOrSignature, sp.Index, err)
		}
	}

	output, err := o.suite.NewOutput(req.Receiver, sender, amount, req.Memo)
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrProofOrSignature, err)
	}
	if err := builder.AddOutput(output); err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrProofOrSignature, err)
	}

	expiration, err := o.expiration(ctx, req.Expiration)
	if err != nil {
		return nil, err
	}
	builder.SetExpiration(expiration)

	tx, err := builder.Post(req.Fee)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofOrSignature, err)
	}
	if err := tx.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofOrSignature, err)
	}
	bz, err := tx.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofOrSignature, err)
	}
	localHash, err := tx.Hash()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofOrSignature, err)
	}

	o.log.Info().
		Int("spends", len(req.Spends)).
		Uint64("amount", amount).
		Uint64("fee", req.Fee).
		Uint32("expiration", expiration).
		Str("hash", hex.EncodeToString(localHash)).
		Msg("broadcasting transaction")

	resp, err := o.transport.BroadcastTransaction(ctx, hex.EncodeToString(bz))
	if err != nil {
		return nil, fmt.Errorf("%w: broadcast: %v", ErrTransactionUnavailable, err)
	}

	res := &SendResult{Amount: amount, Expiration: expiration}
	if resp.Success {
		res.Status = StatusSuccess
		res.Hash = resp.Hash
		if res.Hash == "" {
			res.Hash = hex.EncodeToString(localHash)
		}
		return res, nil
	}

	res.Status = StatusRejected
	res.Reason = NoReasonSupplied
	if resp.Reason != nil {
		res.Reason = *resp.Reason
	}
	o.log.Warn().Str("reason", res.Reason).Msg("transaction rejected")
	return res, nil
}

func (o *Orchestrator) expiration(ctx context.Context, explicit *uint32) (uint32, error) {
	if explicit != nil {
		return *explicit, nil
	}
	height, err := o.transport.GetChainHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: chain height: %v", ErrTransactionUnavailable, err)
	}
	return height + config.ExpirationDelta, nil
}

// fetchWitnesses returns the witness of every spend, in spend order.
func (o *Orchestrator) fetchWitnesses(ctx context.Context, spends []SpendCandidate) ([]*shield.Witness, error) {
	witnesses := make([]*shield.Witness, len(spends))

	fetch := func(ctx context.Context, i int) error {
		rec, err := o.transport.GetNoteWitness(ctx, spends[i].Index)
		if err != nil {
			return fmt.Errorf("%w: witness of note %d: %v", ErrTransactionUnavailable, spends[i].Index, err)
		}
		w, err := AssembleWitness(rec)
		if err != nil {
			return fmt.Errorf("witness of note %d: %w", spends[i].Index, err)
		}
		witnesses[i] = w
		return nil
	}

	if !o.parallel {
		for i := range spends {
			if err := fetch(ctx, i); err != nil {
				return nil, err
			}
		}
		return witnesses, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i := range spends {
		eg.Go(func() error {
			return fetch(egCtx, i)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return witnesses, nil
}
