package algorand

import (
	"context"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

const binaryContentType = "application/x-binary"

// Node is the subset of the algod v2 API used by the client.
type Node interface {
	Params(ctx context.Context) (*Params, error)
	Account(ctx context.Context, address string) (*Account, error)
	Submit(ctx context.Context, signed []byte) (string, error)
	// Pending returns nil once the node no longer knows the transaction.
	Pending(ctx context.Context, txID string) (*PendingTransaction, error)
}

type Params struct {
	ConsensusVersion string `json:"consensus-version"`
	Fee              uint64 `json:"fee"`
	GenesisHash      []byte `json:"genesis-hash"`
	GenesisID        string `json:"genesis-id"`
	LastRound        uint64 `json:"last-round"`
	MinFee           uint64 `json:"min-fee"`
}

type Account struct {
	Address    string `json:"address"`
	Amount     uint64 `json:"amount"`
	MinBalance uint64 `json:"min-balance"`
}

type PendingTransaction struct {
	ConfirmedRound uint64 `json:"confirmed-round"`
	PoolError      string `json:"pool-error"`
	Txn            struct {
		Txn struct {
			Fee uint64 `json:"fee"`
		} `json:"txn"`
	} `json:"txn"`
}

type algodNode struct {
	rest *node.REST
}

// NewAlgodNode creates a Node over an algod instance.
//
//nolint:ireturn
func NewAlgodNode(rest *node.REST) Node {
	return &algodNode{rest: rest}
}

func (n *algodNode) Params(ctx context.Context) (*Params, error) {
	var params Params
	if err := n.rest.Get(ctx, "/v2/transactions/params", &params); err != nil {
		return nil, errors.Wrap(err, "failed to get suggested params")
	}

	return &params, nil
}

func (n *algodNode) Account(ctx context.Context, address string) (*Account, error) {
	var account Account
	if err := n.rest.Get(ctx, "/v2/accounts/"+address+"?exclude=all", &account); err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}

	return &account, nil
}

func (n *algodNode) Submit(ctx context.Context, signed []byte) (string, error) {
	var out struct {
		TxID string `json:"txId"`
	}
	if err := n.rest.PostRaw(ctx, "/v2/transactions", binaryContentType, signed, &out); err != nil {
		return "", err
	}

	return out.TxID, nil
}

func (n *algodNode) Pending(ctx context.Context, txID string) (*PendingTransaction, error) {
	var tx PendingTransaction
	if err := n.rest.Get(ctx, "/v2/transactions/pending/"+txID, &tx); err != nil {
		if node.IsNotFound(err) {
			return nil, nil //nolint:nilnil
		}
		return nil, errors.Wrap(err, "failed to get pending transaction")
	}

	return &tx, nil
}
