package xrp

import (
	"context"
	"math/big"
	"strings"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus only trusts validated ledgers. tec results are included and charge the fee but
// did not apply.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	tx, err := c.node.Transaction(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	if tx == nil || !tx.Validated {
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{State: wallet.TransactionStateReverted}
	if fee, ok := new(big.Int).SetString(tx.Fee, 10); ok {
		result.Fee = fee
	}
	if strings.HasPrefix(tx.Meta.TransactionResult, "tes") {
		result.State = wallet.TransactionStateConfirmed
	}

	return result, nil
}
