package algorand

import (
	"context"
	"math/big"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus reads the pending pool entry. A confirmed round means the transaction is final; a
// pool error means it was dropped and never reached a block.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	tx, err := c.node.Pending(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	switch {
	case tx == nil:
		return wallet.PendingStatus(), nil
	case tx.ConfirmedRound > 0:
		return &wallet.StatusResult{
			State: wallet.TransactionStateConfirmed,
			Fee:   new(big.Int).SetUint64(tx.Txn.Txn.Fee),
		}, nil
	case tx.PoolError != "":
		return &wallet.StatusResult{State: wallet.TransactionStateFailed}, nil
	default:
		return wallet.PendingStatus(), nil
	}
}
