package stellar

import (
	"context"
	"math/big"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus reports transactions in a closed ledger. Failed transactions are included in the
// ledger and charged, so they are reverted rather than failed.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	tx, err := c.node.Transaction(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}
	if tx == nil {
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{State: wallet.TransactionStateReverted}
	if tx.Successful {
		result.State = wallet.TransactionStateConfirmed
	}
	if fee, ok := new(big.Int).SetString(tx.FeeCharged, 10); ok {
		result.Fee = fee
	}

	return result, nil
}
