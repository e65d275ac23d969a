package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus maps the receipt: missing means pending, status 1 confirmed, status 0 reverted.
// The fee is gasUsed * effectiveGasPrice.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	receipt, err := c.node.TransactionReceipt(ctx, common.HexToHash(req.Hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return wallet.PendingStatus(), nil
		}
		return nil, wallet.NewStatusError(c.Chain(), err, "failed to get transaction receipt")
	}

	if receipt == nil {
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{State: wallet.TransactionStateReverted}
	if receipt.Status == types.ReceiptStatusSuccessful {
		result.State = wallet.TransactionStateConfirmed
	}

	if receipt.EffectiveGasPrice != nil {
		result.Fee = new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), receipt.EffectiveGasPrice)
	}

	return result, nil
}
