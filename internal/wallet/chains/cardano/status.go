package cardano

import (
	"context"
	"math/big"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus reports an on-chain transaction as confirmed unless its scripts failed phase-2
// validation, which only collects collateral.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	info, err := c.node.Transaction(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	if info == nil {
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{State: wallet.TransactionStateConfirmed}
	if !info.ValidContract {
		result.State = wallet.TransactionStateReverted
	}

	if fee, ok := new(big.Int).SetString(info.Fees, 10); ok {
		result.Fee = fee
	}

	return result, nil
}
