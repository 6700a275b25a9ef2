package node

import (
	"context"
	"fmt"
	"time"

	"github.com/kysee/zksend/zk-send/config"
	"github.com/kysee/zksend/zk-send/types"
	"github.com/rs/zerolog"
)

// Transport is everything the wallet asks of a remote ledger.
type Transport interface {
	GetTransaction(ctx context.Context, hash string) (*types.TransactionRecord, error)
	GetNoteWitness(ctx context.Context, index uint64) (*types.WitnessRecord, error)
	GetChainHeight(ctx context.Context) (uint32, error)
	BroadcastTransaction(ctx context.Context, txHex string) (*types.BroadcastResponse, error)
}

var (
	_ Transport = (*RPCClient)(nil)
	_ Transport = (*IndexerClient)(nil)
)

// New builds the transport selected by cfg.Backend.
func New(cfg config.Config, log zerolog.Logger) (Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rpc := NewRPCClient(cfg.Endpoint, cfg.Timeout, log)
	switch cfg.Backend {
	case config.BackendNode:
		return rpc, nil
	case config.BackendIndexer:
		return NewIndexerClient(cfg.IndexerURL, rpc, cfg.Timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return config.DefaultTimeout
	}
	return d
}
