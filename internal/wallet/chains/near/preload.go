package near

import (
	"context"
	"math/big"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Preload reads the access key nonce with its reference block and the gas price. Max native
// transfers leave the account's storage staking behind.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	if intent.Type != wallet.TransactionTypeTransfer {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrUnsupportedTransfer, string(intent.Type))
	}

	pub, err := implicitKey(intent.From)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	var (
		key     *AccessKey
		price   *big.Int
		account *Account
	)

	sendMax := intent.UseMaxAmount && intent.AssetID.IsNative()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		key, err = c.node.AccessKey(gctx, intent.From, encodeKey(pub))
		return err
	})
	g.Go(func() error {
		var err error
		price, err = c.node.GasPrice(gctx)
		return err
	})
	if sendMax {
		g.Go(func() error {
			var err error
			account, err = c.node.Account(gctx, intent.From)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	blockHash, err := base58.Decode(key.BlockHash)
	if err != nil || len(blockHash) != 32 {
		return nil, wallet.NewPreloadError(c.Chain(), errors.Errorf("invalid block hash %q", key.BlockHash), "")
	}

	gas := int64(transferGas)
	if !intent.AssetID.IsNative() {
		gas = ftTransferGas
	}

	fee := new(big.Int).Mul(price, big.NewInt(gas))

	if sendMax {
		balance, ok := new(big.Int).SetString(account.Amount, 10)
		if !ok {
			return nil, wallet.NewPreloadError(c.Chain(), errors.Errorf("invalid balance %q", account.Amount), "")
		}
		staked := new(big.Int).Mul(new(big.Int).SetUint64(account.StorageUsage), new(big.Int).SetUint64(storageByteCost))
		spendable := balance.Sub(balance, staked)
		if spendable.Cmp(fee) <= 0 {
			return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrInsufficientReserve, "")
		}
		if intent.Amount == nil || intent.Amount.Cmp(spendable) > 0 {
			intent.Amount = spendable
		}
	}

	data := wallet.NearSignData{
		FeeSet:    wallet.SingleFee(wallet.NativeAsset(c.Chain()), fee),
		Nonce:     key.Nonce + 1,
		BlockHash: blockHash,
	}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: data.Default()}, nil
}

func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	price, err := c.node.GasPrice(ctx)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	gas := int64(transferGas)
	if !intent.AssetID.IsNative() {
		gas = ftTransferGas
	}

	return wallet.SingleFee(wallet.NativeAsset(c.Chain()), new(big.Int).Mul(price, big.NewInt(gas))), nil
}
