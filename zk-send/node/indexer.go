package node

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kysee/zksend/zk-send/types"
	"github.com/rs/zerolog"
)

// IndexerClient resolves a transaction hash to its block through an indexer
// before asking the node for it. Every other call goes to the node.
type IndexerClient struct {
	*RPCClient

	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewIndexerClient(indexerURL string, rpc *RPCClient, timeout time.Duration, log zerolog.Logger) *IndexerClient {
	return &IndexerClient{
		RPCClient: rpc,
		baseURL:   withScheme(indexerURL),
		httpClient: &http.Client{
			Timeout: timeoutOrDefault(timeout),
		},
		log: log.With().Str("module", "indexer").Logger(),
	}
}

func (c *IndexerClient) GetTransaction(ctx context.Context, hash string) (*types.TransactionRecord, error) {
	loc, err := c.LocateTransaction(ctx, hash)
	if err != nil {
		return nil, err
	}
	return c.RPCClient.GetTransactionInBlock(ctx, loc.Hash, loc.BlockHash)
}

// LocateTransaction asks the indexer which block holds hash.
func (c *IndexerClient) LocateTransaction(ctx context.Context, hash string) (*types.TransactionLocation, error) {
	u := fmt.Sprintf("%s/v0/api/transaction/%s", c.baseURL, url.PathEscape(hash))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.log.Debug().Str("hash", hash).Msg("locating transaction")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("indexer: http status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var loc types.TransactionLocation
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return nil, fmt.Errorf("indexer: failed to decode response: %w", err)
	}
	if loc.Hash == "" {
		loc.Hash = hash
	}
	return &loc, nil
}
