package evm

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Send decodes the signed payload and submits it with eth_sendRawTransaction.
func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	//nolint:varnamelen
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(signed); err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, "invalid signed transaction")
	}

	if err := c.node.SendTransaction(ctx, tx); err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	return tx.Hash().Hex(), nil
}
