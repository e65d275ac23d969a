package cardano

import (
	"context"
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

const (
	lovelaceUnit = "lovelace"
	pageSize     = 100
)

// Node is the subset of the Blockfrost API used by the client.
type Node interface {
	// UTXOs returns the ada-only outputs of address. Outputs holding native assets are left
	// out because spending them would require carrying the assets over.
	UTXOs(ctx context.Context, address string) ([]wallet.UTXO, error)
	LatestSlot(ctx context.Context) (uint64, error)
	Submit(ctx context.Context, tx []byte) (string, error)
	// Transaction returns nil while the hash is not on chain.
	Transaction(ctx context.Context, hash string) (*TxInfo, error)
}

type TxInfo struct {
	Hash          string `json:"hash"`
	BlockHeight   int64  `json:"block_height"`
	Fees          string `json:"fees"`
	ValidContract bool   `json:"valid_contract"`
}

type blockfrostNode struct {
	rest *node.REST
}

// NewBlockfrostNode creates a Node over the Blockfrost REST API. The rest caller carries the
// project_id header.
//
//nolint:ireturn
func NewBlockfrostNode(rest *node.REST) Node {
	return &blockfrostNode{rest: rest}
}

type utxoJSON struct {
	TxHash      string `json:"tx_hash"`
	OutputIndex uint32 `json:"output_index"`
	Address     string `json:"address"`
	Amount      []struct {
		Unit     string `json:"unit"`
		Quantity string `json:"quantity"`
	} `json:"amount"`
}

func (u utxoJSON) lovelace() (int64, bool) {
	var amount int64
	for _, a := range u.Amount {
		if a.Unit != lovelaceUnit {
			return 0, false
		}

		q, ok := new(big.Int).SetString(a.Quantity, 10)
		if !ok || !q.IsInt64() {
			return 0, false
		}
		amount += q.Int64()
	}

	return amount, true
}

func (n *blockfrostNode) UTXOs(ctx context.Context, address string) ([]wallet.UTXO, error) {
	var utxos []wallet.UTXO

	for page := 1; ; page++ {
		var resp []utxoJSON
		err := n.rest.Get(ctx, fmt.Sprintf("/addresses/%s/utxos?count=%d&page=%d", address, pageSize, page), &resp)
		if node.IsNotFound(err) {
			// never used addresses are unknown to blockfrost
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to list utxos")
		}

		for _, u := range resp {
			amount, ok := u.lovelace()
			if !ok {
				continue
			}
			utxos = append(utxos, wallet.UTXO{TxID: u.TxHash, Vout: u.OutputIndex, Amount: amount, Address: u.Address})
		}

		if len(resp) < pageSize {
			break
		}
	}

	return utxos, nil
}

func (n *blockfrostNode) LatestSlot(ctx context.Context) (uint64, error) {
	var resp struct {
		Slot uint64 `json:"slot"`
	}
	if err := n.rest.Get(ctx, "/blocks/latest", &resp); err != nil {
		return 0, errors.Wrap(err, "failed to get latest block")
	}

	return resp.Slot, nil
}

func (n *blockfrostNode) Submit(ctx context.Context, tx []byte) (string, error) {
	var hash string
	if err := n.rest.PostRaw(ctx, "/tx/submit", "application/cbor", tx, &hash); err != nil {
		return "", errors.Wrap(err, "failed to submit transaction")
	}

	return hash, nil
}

func (n *blockfrostNode) Transaction(ctx context.Context, hash string) (*TxInfo, error) {
	var info TxInfo
	err := n.rest.Get(ctx, "/txs/"+hash, &info)
	if node.IsNotFound(err) {
		return nil, nil //nolint:nilnil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	return &info, nil
}
