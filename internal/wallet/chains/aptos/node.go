package aptos

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

const bcsSignedTransaction = "application/x.aptos.signed_transaction+bcs"

// Node is the subset of the Aptos fullnode REST API used by the client.
type Node interface {
	Sequence(ctx context.Context, address string) (uint64, error)
	Ledger(ctx context.Context) (*LedgerInfo, error)
	GasPrice(ctx context.Context) (*GasEstimate, error)
	Simulate(ctx context.Context, signed []byte) (*Transaction, error)
	Submit(ctx context.Context, signed []byte) (string, error)
	// Transaction returns nil while the hash is unknown.
	Transaction(ctx context.Context, hash string) (*Transaction, error)
}

type LedgerInfo struct {
	ChainID         uint8  `json:"chain_id"`
	LedgerTimestamp string `json:"ledger_timestamp"` // microseconds
}

type GasEstimate struct {
	DeprioritizedGasEstimate uint64 `json:"deprioritized_gas_estimate"`
	GasEstimate              uint64 `json:"gas_estimate"`
	PrioritizedGasEstimate   uint64 `json:"prioritized_gas_estimate"`
}

type Transaction struct {
	Type         string `json:"type"`
	Hash         string `json:"hash"`
	Success      bool   `json:"success"`
	VMStatus     string `json:"vm_status"`
	GasUsed      string `json:"gas_used"`
	GasUnitPrice string `json:"gas_unit_price"`
}

type restNode struct {
	rest *node.REST
}

// NewRESTNode creates a Node over the fullnode /v1 API.
//
//nolint:ireturn
func NewRESTNode(rest *node.REST) Node {
	return &restNode{rest: rest}
}

func (n *restNode) Sequence(ctx context.Context, address string) (uint64, error) {
	var account struct {
		SequenceNumber string `json:"sequence_number"`
	}
	if err := n.rest.Get(ctx, "/v1/accounts/"+address, &account); err != nil {
		if node.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get account")
	}

	seq, err := strconv.ParseUint(account.SequenceNumber, 10, 64)
	return seq, errors.Wrapf(err, "invalid sequence number %q", account.SequenceNumber)
}

func (n *restNode) Ledger(ctx context.Context) (*LedgerInfo, error) {
	var info LedgerInfo
	if err := n.rest.Get(ctx, "/v1", &info); err != nil {
		return nil, errors.Wrap(err, "failed to get ledger info")
	}

	return &info, nil
}

func (n *restNode) GasPrice(ctx context.Context) (*GasEstimate, error) {
	var estimate GasEstimate
	if err := n.rest.Get(ctx, "/v1/estimate_gas_price", &estimate); err != nil {
		return nil, errors.Wrap(err, "failed to estimate gas price")
	}

	return &estimate, nil
}

func (n *restNode) Simulate(ctx context.Context, signed []byte) (*Transaction, error) {
	var out []Transaction
	if err := n.rest.PostRaw(ctx, "/v1/transactions/simulate", bcsSignedTransaction, signed, &out); err != nil {
		return nil, errors.Wrap(err, "failed to simulate transaction")
	}
	if len(out) == 0 {
		return nil, errors.New("empty simulation result")
	}

	return &out[0], nil
}

func (n *restNode) Submit(ctx context.Context, signed []byte) (string, error) {
	var out Transaction
	if err := n.rest.PostRaw(ctx, "/v1/transactions", bcsSignedTransaction, signed, &out); err != nil {
		return "", err
	}

	return out.Hash, nil
}

func (n *restNode) Transaction(ctx context.Context, hash string) (*Transaction, error) {
	var tx Transaction
	if err := n.rest.Get(ctx, "/v1/transactions/by_hash/"+hash, &tx); err != nil {
		if node.IsNotFound(err) {
			return nil, nil //nolint:nilnil
		}
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	return &tx, nil
}
