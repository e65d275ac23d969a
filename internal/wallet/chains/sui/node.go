package sui

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

const coinsPageLimit = 50

// Node is the subset of the Sui JSON-RPC API used by the client. Transaction bytes travel
// base64 encoded as the API expects.
type Node interface {
	Coins(ctx context.Context, owner, coinType string) ([]Coin, error)
	ReferenceGasPrice(ctx context.Context) (uint64, error)
	PaySui(ctx context.Context, signer string, coins []string, recipient string, amount string, budget uint64) (string, error)
	PayAllSui(ctx context.Context, signer string, coins []string, recipient string, budget uint64) (string, error)
	Pay(ctx context.Context, signer string, coins []string, recipient string, amount string, gas string, budget uint64) (string, error)
	DryRun(ctx context.Context, txBytes string) (*Effects, error)
	Execute(ctx context.Context, txBytes string, signature string) (string, error)
	// Transaction returns nil while the digest is unknown to the node.
	Transaction(ctx context.Context, digest string) (*TransactionBlock, error)
}

type Coin struct {
	CoinType     string `json:"coinType"`
	CoinObjectID string `json:"coinObjectId"`
	Balance      string `json:"balance"`
}

type GasUsed struct {
	ComputationCost string `json:"computationCost"`
	StorageCost     string `json:"storageCost"`
	StorageRebate   string `json:"storageRebate"`
}

type Effects struct {
	Status struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"status"`
	GasUsed GasUsed `json:"gasUsed"`
}

type TransactionBlock struct {
	Digest  string   `json:"digest"`
	Effects *Effects `json:"effects"`
}

type rpcNode struct {
	rpc *node.RPC
}

// NewRPCNode creates a Node over a Sui fullnode JSON-RPC endpoint.
//
//nolint:ireturn
func NewRPCNode(caller *node.RPC) Node {
	return &rpcNode{rpc: caller}
}

func (n *rpcNode) Coins(ctx context.Context, owner, coinType string) ([]Coin, error) {
	var (
		coins  []Coin
		cursor *string
	)

	for {
		var page struct {
			Data        []Coin  `json:"data"`
			NextCursor  *string `json:"nextCursor"`
			HasNextPage bool    `json:"hasNextPage"`
		}
		if err := n.rpc.Call(ctx, &page, "suix_getCoins", owner, coinType, cursor, coinsPageLimit); err != nil {
			return nil, errors.Wrap(err, "failed to get coins")
		}

		coins = append(coins, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return coins, nil
		}
		cursor = page.NextCursor
	}
}

func (n *rpcNode) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price stringUint
	if err := n.rpc.Call(ctx, &price, "suix_getReferenceGasPrice"); err != nil {
		return 0, errors.Wrap(err, "failed to get reference gas price")
	}

	return uint64(price), nil
}

type txBytesResult struct {
	TxBytes string `json:"txBytes"`
}

func (n *rpcNode) PaySui(ctx context.Context, signer string, coins []string, recipient string, amount string, budget uint64) (string, error) {
	var out txBytesResult
	err := n.rpc.Call(ctx, &out, "unsafe_paySui", signer, coins, []string{recipient}, []string{amount}, stringUint(budget))

	return out.TxBytes, errors.Wrap(err, "failed to build paySui transaction")
}

func (n *rpcNode) PayAllSui(ctx context.Context, signer string, coins []string, recipient string, budget uint64) (string, error) {
	var out txBytesResult
	err := n.rpc.Call(ctx, &out, "unsafe_payAllSui", signer, coins, recipient, stringUint(budget))

	return out.TxBytes, errors.Wrap(err, "failed to build payAllSui transaction")
}

func (n *rpcNode) Pay(ctx context.Context, signer string, coins []string, recipient string, amount string, gas string, budget uint64) (string, error) {
	var out txBytesResult
	err := n.rpc.Call(ctx, &out, "unsafe_pay", signer, coins, []string{recipient}, []string{amount}, gas, stringUint(budget))

	return out.TxBytes, errors.Wrap(err, "failed to build pay transaction")
}

func (n *rpcNode) DryRun(ctx context.Context, txBytes string) (*Effects, error) {
	var out struct {
		Effects Effects `json:"effects"`
	}
	if err := n.rpc.Call(ctx, &out, "sui_dryRunTransactionBlock", txBytes); err != nil {
		return nil, errors.Wrap(err, "failed to dry run transaction")
	}

	return &out.Effects, nil
}

func (n *rpcNode) Execute(ctx context.Context, txBytes string, signature string) (string, error) {
	var out struct {
		Digest string `json:"digest"`
	}
	options := map[string]bool{"showEffects": true}
	if err := n.rpc.Call(ctx, &out, "sui_executeTransactionBlock", txBytes, []string{signature}, options, "WaitForLocalExecution"); err != nil {
		return "", err
	}

	return out.Digest, nil
}

func (n *rpcNode) Transaction(ctx context.Context, digest string) (*TransactionBlock, error) {
	var out TransactionBlock
	options := map[string]bool{"showEffects": true}
	if err := n.rpc.Call(ctx, &out, "sui_getTransactionBlock", digest, options); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) && strings.Contains(rpcErr.Error(), "Could not find") {
			return nil, nil //nolint:nilnil
		}
		return nil, errors.Wrap(err, "failed to get transaction block")
	}

	return &out, nil
}
