package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kysee/zksend/zk-send/types"
	"github.com/rs/zerolog"
)

const (
	MethodGetChainInfo         = "getChainInfo"
	MethodGetTransaction       = "getTransaction"
	MethodGetNoteWitness       = "getNoteWitness"
	MethodBroadcastTransaction = "broadcastTransaction"
)

// Envelope wraps every node RPC response.
type Envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type GetTransactionRequest struct {
	TransactionHash string `json:"transactionHash"`
	BlockHash       string `json:"blockHash,omitempty"`
}

type GetNoteWitnessRequest struct {
	Index uint64 `json:"index"`
}

type BroadcastTransactionRequest struct {
	Transaction string `json:"transaction"`
}

// RPCClient talks to a node's /chain/* JSON API.
type RPCClient struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewRPCClient(endpoint string, timeout time.Duration, log zerolog.Logger) *RPCClient {
	return &RPCClient{
		baseURL: withScheme(endpoint),
		httpClient: &http.Client{
			Timeout: timeoutOrDefault(timeout),
		},
		log: log.With().Str("module", "rpc").Logger(),
	}
}

func (c *RPCClient) GetTransaction(ctx context.Context, hash string) (*types.TransactionRecord, error) {
	return c.GetTransactionInBlock(ctx, hash, "")
}

// GetTransactionInBlock is GetTransaction with the block the indexer placed
// the transaction in.
func (c *RPCClient) GetTransactionInBlock(ctx context.Context, hash, blockHash string) (*types.TransactionRecord, error) {
	var rec types.TransactionRecord
	req := GetTransactionRequest{TransactionHash: hash, BlockHash: blockHash}
	if err := c.call(ctx, MethodGetTransaction, req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *RPCClient) GetNoteWitness(ctx context.Context, index uint64) (*types.WitnessRecord, error) {
	var w types.WitnessRecord
	if err := c.call(ctx, MethodGetNoteWitness, GetNoteWitnessRequest{Index: index}, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *RPCClient) GetChainHeight(ctx context.Context) (uint32, error) {
	var info types.ChainInfo
	if err := c.call(ctx, MethodGetChainInfo, nil, &info); err != nil {
		return 0, err
	}
	h, err := strconv.ParseUint(info.CurrentBlockIdentifier.Index, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid chain height %q: %w", info.CurrentBlockIdentifier.Index, err)
	}
	return uint32(h), nil
}

func (c *RPCClient) BroadcastTransaction(ctx context.Context, txHex string) (*types.BroadcastResponse, error) {
	var resp types.BroadcastResponse
	if err := c.call(ctx, MethodBroadcastTransaction, BroadcastTransactionRequest{Transaction: txHex}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params, out interface{}) error {
	url := fmt.Sprintf("%s/chain/%s", c.baseURL, method)

	var body io.Reader
	if params != nil {
		bz, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", method, err)
		}
		body = bytes.NewReader(bz)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug().Str("method", method).Msg("calling node")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(method, resp, out)
}

func decodeEnvelope(method string, resp *http.Response, out interface{}) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: http status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", method, err)
	}
	if env.Status < 200 || env.Status > 299 {
		return fmt.Errorf("%s: rpc status %d", method, env.Status)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: failed to decode data: %w", method, err)
	}
	return nil
}

func withScheme(endpoint string) string {
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "http://" + endpoint
}
