package cosmos

import (
	"context"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus reports a transaction included in a block with code 0 as confirmed, any other
// code as reverted.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	resp, err := c.node.Transaction(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	if resp == nil || resp.Height == "" || resp.Height == "0" {
		return wallet.PendingStatus(), nil
	}

	if resp.Code != 0 {
		return &wallet.StatusResult{State: wallet.TransactionStateReverted}, nil
	}

	return &wallet.StatusResult{State: wallet.TransactionStateConfirmed}, nil
}
