package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github/chapool/wallet-txengine/internal/wallet"
)

// GetStatus treats unknown and processed signatures as pending. A landed transaction with an
// error is reverted since its fee was charged.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	sig, err := solana.SignatureFromBase58(req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "invalid signature")
	}

	status, err := c.node.SignatureStatus(ctx, sig)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	if status == nil {
		return wallet.PendingStatus(), nil
	}

	if status.Err != nil {
		return &wallet.StatusResult{State: wallet.TransactionStateReverted}, nil
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return &wallet.StatusResult{State: wallet.TransactionStateConfirmed}, nil
	default:
		return wallet.PendingStatus(), nil
	}
}
