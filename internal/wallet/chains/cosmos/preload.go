package cosmos

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Preload reads the signer's account number and sequence. Fees come from configuration: the
// configured amount is Normal, Fast pays double.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	if intent.Type != wallet.TransactionTypeTransfer {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrUnsupportedTransfer, string(intent.Type))
	}

	fees, err := c.fees()
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	account, err := c.node.Account(ctx, intent.From)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	data := wallet.CosmosSignData{
		FeeSet:        fees,
		ChainID:       c.cfg.NetworkID,
		AccountNumber: account.AccountNumber,
		Sequence:      account.Sequence,
	}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: fees.Default()}, nil
}

func (c *Client) CalculateFees(_ context.Context, _ wallet.TransferIntent) ([]wallet.Fee, error) {
	fees, err := c.fees()
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	return fees, nil
}

func (c *Client) fees() (wallet.FeeSet, error) {
	amount, ok := new(big.Int).SetString(c.cfg.FeeAmount, 10)
	if !ok {
		return nil, errors.Errorf("invalid fee amount %q", c.cfg.FeeAmount)
	}

	native := wallet.NativeAsset(c.Chain())
	price := new(big.Int)
	if c.cfg.GasLimit > 0 {
		price.Quo(amount, new(big.Int).SetUint64(c.cfg.GasLimit))
	}

	return wallet.FeeSet{
		{
			AssetID:  native,
			Priority: wallet.FeePriorityNormal,
			Amount:   amount,
			GasLimit: c.cfg.GasLimit,
			GasPrice: price,
		},
		{
			AssetID:  native,
			Priority: wallet.FeePriorityFast,
			Amount:   new(big.Int).Lsh(amount, 1),
			GasLimit: c.cfg.GasLimit,
			GasPrice: new(big.Int).Lsh(price, 1),
		},
	}, nil
}
