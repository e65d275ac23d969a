package xrp

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Preload reads the sender's sequence and balance together with the network fee.
// Native transfers must leave the configured reserve on the account; max transfers send
// everything above it.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	switch intent.Type {
	case wallet.TransactionTypeTransfer, wallet.TransactionTypeAssetActivation:
	default:
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrUnsupportedTransfer, string(intent.Type))
	}

	var (
		account *AccountInfo
		feeInfo *FeeInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, err = c.node.AccountInfo(gctx, intent.From)
		return err
	})
	g.Go(func() error {
		var err error
		feeInfo, err = c.node.Fee(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	if account == nil {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrNotFound, "account is not activated")
	}

	fees := c.fees(feeInfo)
	fee := fees.Default()

	balance, ok := new(big.Int).SetString(account.Balance, 10)
	if !ok {
		return nil, wallet.NewPreloadError(c.Chain(), errors.Errorf("invalid balance %q", account.Balance), "")
	}
	reserve, ok := new(big.Int).SetString(c.cfg.Reserve, 10)
	if !ok {
		reserve = new(big.Int)
	}

	native := intent.Type == wallet.TransactionTypeTransfer && intent.AssetID.IsNative()
	if native && intent.UseMaxAmount {
		spendable := new(big.Int).Sub(balance, reserve)
		if spendable.Cmp(fee.Amount) <= 0 {
			return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrInsufficientReserve, "")
		}
		if intent.Amount == nil || intent.Amount.Cmp(spendable) > 0 {
			intent.Amount = spendable
		}
	}

	required := new(big.Int).Add(reserve, fee.Amount)
	if native && !intent.UseMaxAmount && intent.Amount != nil {
		required.Add(required, intent.Amount)
	}
	if balance.Cmp(required) < 0 {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrInsufficientReserve,
			"balance "+balance.String()+" below "+required.String())
	}

	data := wallet.XrpSignData{
		FeeSet:      fees,
		Sequence:    account.Sequence,
		BlockNumber: feeInfo.LedgerCurrentIndex,
	}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: fee}, nil
}

func (c *Client) CalculateFees(ctx context.Context, _ wallet.TransferIntent) ([]wallet.Fee, error) {
	feeInfo, err := c.node.Fee(ctx)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	return c.fees(feeInfo), nil
}

// fees quotes a single Normal fee: the median fee of the open ledger, never below the base fee.
func (c *Client) fees(info *FeeInfo) wallet.FeeSet {
	return wallet.SingleFee(wallet.NativeAsset(c.Chain()), maxDrops(info.Drops.MedianFee, info.Drops.BaseFee))
}

func maxDrops(values ...string) *big.Int {
	out := big.NewInt(10)
	for _, v := range values {
		if n, ok := new(big.Int).SetString(v, 10); ok && n.Cmp(out) > 0 {
			out = n
		}
	}

	return out
}
