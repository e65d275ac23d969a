package near

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of the NEAR JSON-RPC API used by the client.
type Node interface {
	AccessKey(ctx context.Context, account, publicKey string) (*AccessKey, error)
	Account(ctx context.Context, account string) (*Account, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	Broadcast(ctx context.Context, signed []byte) (string, error)
	// Transaction returns nil while the hash is unknown.
	Transaction(ctx context.Context, hash, sender string) (*Outcome, error)
}

type AccessKey struct {
	Nonce     uint64 `json:"nonce"`
	BlockHash string `json:"block_hash"`
}

type Account struct {
	Amount       string `json:"amount"`
	Locked       string `json:"locked"`
	StorageUsage uint64 `json:"storage_usage"`
}

type Outcome struct {
	// Status is {"SuccessValue": ...}, {"Failure": ...} or a bare string while executing.
	Status             json.RawMessage    `json:"status"`
	TransactionOutcome executionOutcome   `json:"transaction_outcome"`
	ReceiptsOutcome    []executionOutcome `json:"receipts_outcome"`
}

type executionOutcome struct {
	Outcome struct {
		TokensBurnt string `json:"tokens_burnt"`
	} `json:"outcome"`
}

// TokensBurnt sums the fee burnt by the transaction and its receipts.
func (o *Outcome) TokensBurnt() *big.Int {
	total := new(big.Int)
	for _, e := range append([]executionOutcome{o.TransactionOutcome}, o.ReceiptsOutcome...) {
		if v, ok := new(big.Int).SetString(e.Outcome.TokensBurnt, 10); ok {
			total.Add(total, v)
		}
	}

	return total
}

// RPCError is a structured NEAR RPC error. Cause names such as UNKNOWN_TRANSACTION or
// UNKNOWN_ACCESS_KEY identify the condition.
type RPCError struct {
	Name  string `json:"name"`
	Cause struct {
		Name string `json:"name"`
	} `json:"cause"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *RPCError) Error() string {
	return "near rpc: " + e.Name + ": " + e.Cause.Name + ": " + e.Message
}

func causeIs(err error, names ...string) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	for _, name := range names {
		if rpcErr.Cause.Name == name {
			return true
		}
	}

	return false
}

type rpcNode struct {
	rest *node.REST
}

// NewRPCNode creates a Node posting JSON-RPC envelopes to the endpoint root. Named params are
// required by the query method, so the envelope is built here rather than through node.RPC.
//
//nolint:ireturn
func NewRPCNode(rest *node.REST) Node {
	return &rpcNode{rest: rest}
}

func (n *rpcNode) call(ctx context.Context, method string, params any, result any) error {
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      "txengine",
		"method":  method,
		"params":  params,
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := n.rest.Post(ctx, "", req, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}

	return errors.Wrapf(json.Unmarshal(resp.Result, result), "failed to decode %s result", method)
}

func (n *rpcNode) AccessKey(ctx context.Context, account, publicKey string) (*AccessKey, error) {
	params := map[string]string{
		"request_type": "view_access_key",
		"finality":     "final",
		"account_id":   account,
		"public_key":   publicKey,
	}

	var key AccessKey
	if err := n.call(ctx, "query", params, &key); err != nil {
		if causeIs(err, "UNKNOWN_ACCOUNT", "UNKNOWN_ACCESS_KEY") {
			return nil, errors.Wrapf(wallet.ErrNotFound, "access key of %s", account)
		}
		return nil, errors.Wrap(err, "failed to view access key")
	}

	return &key, nil
}

func (n *rpcNode) Account(ctx context.Context, account string) (*Account, error) {
	params := map[string]string{
		"request_type": "view_account",
		"finality":     "final",
		"account_id":   account,
	}

	var out Account
	if err := n.call(ctx, "query", params, &out); err != nil {
		if causeIs(err, "UNKNOWN_ACCOUNT") {
			return nil, errors.Wrapf(wallet.ErrNotFound, "account %s", account)
		}
		return nil, errors.Wrap(err, "failed to view account")
	}

	return &out, nil
}

func (n *rpcNode) GasPrice(ctx context.Context) (*big.Int, error) {
	var out struct {
		GasPrice string `json:"gas_price"`
	}
	if err := n.call(ctx, "gas_price", []any{nil}, &out); err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	price, ok := new(big.Int).SetString(out.GasPrice, 10)
	if !ok {
		return nil, errors.Errorf("invalid gas price %q", out.GasPrice)
	}

	return price, nil
}

func (n *rpcNode) Broadcast(ctx context.Context, signed []byte) (string, error) {
	var hash string
	if err := n.call(ctx, "broadcast_tx_async", []string{base64.StdEncoding.EncodeToString(signed)}, &hash); err != nil {
		return "", err
	}

	return hash, nil
}

func (n *rpcNode) Transaction(ctx context.Context, hash, sender string) (*Outcome, error) {
	params := map[string]string{
		"tx_hash":           hash,
		"sender_account_id": sender,
		"wait_until":        "NONE",
	}

	var out Outcome
	if err := n.call(ctx, "tx", params, &out); err != nil {
		if causeIs(err, "UNKNOWN_TRANSACTION") {
			return nil, nil //nolint:nilnil
		}
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	return &out, nil
}
