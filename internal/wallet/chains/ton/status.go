package ton

import (
	"context"
	"math/big"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus resolves the transaction that processed the external message. A failed compute or
// action phase still burns the fee and is reported as reverted.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	tx, err := c.node.TransactionByMessage(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}
	if tx == nil {
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{State: wallet.TransactionStateReverted}
	if tx.Succeeded() {
		result.State = wallet.TransactionStateConfirmed
	}
	if fee, ok := new(big.Int).SetString(tx.TotalFees, 10); ok {
		result.Fee = fee
	}

	return result, nil
}
