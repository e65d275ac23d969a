package tron

import (
	"context"
	"math/big"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus reads the solidified transaction info. A failed contract result or a receipt
// other than SUCCESS is a revert that still burned its fee.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	info, err := c.node.TransactionInfo(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	if info == nil {
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{State: wallet.TransactionStateConfirmed, Fee: big.NewInt(info.Fee)}
	if info.Result == "FAILED" || (info.Receipt.Result != "" && info.Receipt.Result != "SUCCESS") {
		result.State = wallet.TransactionStateReverted
	}

	return result, nil
}
