package sui

import (
	"context"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus maps the effects status: success is confirmed, failure reverted (gas is charged).
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	block, err := c.node.Transaction(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	if block == nil || block.Effects == nil {
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{Fee: gasFee(block.Effects.GasUsed)}
	switch block.Effects.Status.Status {
	case "success":
		result.State = wallet.TransactionStateConfirmed
	case "failure":
		result.State = wallet.TransactionStateReverted
	default:
		return wallet.PendingStatus(), nil
	}

	return result, nil
}
