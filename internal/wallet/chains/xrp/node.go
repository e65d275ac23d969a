package xrp

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of the rippled JSON-RPC API used by the client.
type Node interface {
	// AccountInfo returns nil when the account is not funded.
	AccountInfo(ctx context.Context, address string) (*AccountInfo, error)
	Fee(ctx context.Context) (*FeeInfo, error)
	Submit(ctx context.Context, blob string) (*SubmitResult, error)
	// Transaction returns nil while the hash is unknown.
	Transaction(ctx context.Context, hash string) (*TxResult, error)
}

type AccountInfo struct {
	Account  string `json:"Account"`
	Balance  string `json:"Balance"`
	Sequence uint32 `json:"Sequence"`
}

type FeeInfo struct {
	Drops struct {
		BaseFee       string `json:"base_fee"`
		MedianFee     string `json:"median_fee"`
		MinimumFee    string `json:"minimum_fee"`
		OpenLedgerFee string `json:"open_ledger_fee"`
	} `json:"drops"`
	LedgerCurrentIndex uint32 `json:"ledger_current_index"`
}

type SubmitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultMessage string `json:"engine_result_message"`
	TxJSON              struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

type TxResult struct {
	Hash      string `json:"hash"`
	Fee       string `json:"Fee"`
	Validated bool   `json:"validated"`
	Meta      struct {
		TransactionResult string `json:"TransactionResult"`
	} `json:"meta"`
}

// RPCError is an error answer from rippled. rippled reports failures inside the result.
type RPCError struct {
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return e.Code
	}

	return e.Code + ": " + e.Message
}

func isRPCError(err error, code string) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

type rpcNode struct {
	rest *node.REST
}

// NewRPCNode creates a Node over a rippled JSON-RPC endpoint.
//
//nolint:ireturn
func NewRPCNode(rest *node.REST) Node {
	return &rpcNode{rest: rest}
}

type status struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorMessage string `json:"error_message"`
}

func (n *rpcNode) call(ctx context.Context, method string, params map[string]any, result any) error {
	req := map[string]any{
		"method": method,
		"params": []map[string]any{params},
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
	}
	if err := n.rest.Post(ctx, "", req, &resp); err != nil {
		return errors.Wrap(err, method)
	}

	var st status
	if err := json.Unmarshal(resp.Result, &st); err != nil {
		return errors.Wrapf(err, "failed to decode %s result", method)
	}
	if st.Status == "error" || st.Error != "" {
		return &RPCError{Code: st.Error, Message: st.ErrorMessage}
	}

	return errors.Wrapf(json.Unmarshal(resp.Result, result), "failed to decode %s result", method)
}

func (n *rpcNode) AccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	var result struct {
		AccountData AccountInfo `json:"account_data"`
	}
	err := n.call(ctx, "account_info", map[string]any{"account": address, "ledger_index": "current"}, &result)
	if isRPCError(err, "actNotFound") {
		return nil, nil //nolint:nilnil
	}
	if err != nil {
		return nil, err
	}

	return &result.AccountData, nil
}

func (n *rpcNode) Fee(ctx context.Context) (*FeeInfo, error) {
	var result FeeInfo
	if err := n.call(ctx, "fee", map[string]any{}, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (n *rpcNode) Submit(ctx context.Context, blob string) (*SubmitResult, error) {
	var result SubmitResult
	if err := n.call(ctx, "submit", map[string]any{"tx_blob": blob}, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (n *rpcNode) Transaction(ctx context.Context, hash string) (*TxResult, error) {
	var result TxResult
	err := n.call(ctx, "tx", map[string]any{"transaction": hash, "binary": false}, &result)
	if isRPCError(err, "txnNotFound") {
		return nil, nil //nolint:nilnil
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}
