package aptos

import (
	"context"
	"math/big"

	"github/chapool/wallet-txengine/internal/wallet"
)

const pendingTransaction = "pending_transaction"

func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	tx, err := c.node.Transaction(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	if tx == nil || tx.Type == pendingTransaction {
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{State: wallet.TransactionStateReverted}
	if tx.Success {
		result.State = wallet.TransactionStateConfirmed
	}

	used, okUsed := new(big.Int).SetString(tx.GasUsed, 10)
	price, okPrice := new(big.Int).SetString(tx.GasUnitPrice, 10)
	if okUsed && okPrice {
		result.Fee = used.Mul(used, price)
	}

	return result, nil
}
