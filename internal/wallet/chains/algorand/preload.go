package algorand

import (
	"context"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

const (
	// size estimate of a signed payment, for congestion fees quoted per byte
	estimatedTxnSize = 250
	minTxnFee        = 1000
)

// Preload reads the suggested params and the sender's balance and minimum balance. Native
// transfers must leave the minimum balance behind; max transfers send everything above it.
// Asset activation opts the sender in to the ASA named by the token id.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	switch intent.Type {
	case wallet.TransactionTypeTransfer, wallet.TransactionTypeAssetActivation:
	default:
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrUnsupportedTransfer, string(intent.Type))
	}
	if !intent.AssetID.IsNative() || intent.Type == wallet.TransactionTypeAssetActivation {
		if _, err := assetIndex(intent.AssetID); err != nil {
			return nil, wallet.NewPreloadError(c.Chain(), err, "")
		}
	}

	var (
		params  *Params
		account *Account
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		params, err = c.node.Params(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		account, err = c.node.Account(gctx, intent.From)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	fees := c.fees(params)
	fee := fees.Default()

	balance := new(big.Int).SetUint64(account.Amount)
	reserve := new(big.Int).SetUint64(account.MinBalance)
	if configured, ok := new(big.Int).SetString(c.cfg.Reserve, 10); ok && configured.Cmp(reserve) > 0 {
		reserve = configured
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

	data := wallet.AlgorandSignData{
		FeeSet:      fees,
		GenesisID:   params.GenesisID,
		GenesisHash: params.GenesisHash,
		FirstRound:  params.LastRound,
		LastRound:   params.LastRound + validityRounds,
	}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: fee}, nil
}

func (c *Client) CalculateFees(ctx context.Context, _ wallet.TransferIntent) ([]wallet.Fee, error) {
	params, err := c.node.Params(ctx)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	return c.fees(params), nil
}

// fees quotes a single Normal fee: the per byte congestion fee for a typical transaction,
// never below the minimum fee.
func (c *Client) fees(params *Params) wallet.FeeSet {
	fee := max(params.Fee*estimatedTxnSize, params.MinFee, minTxnFee)

	return wallet.SingleFee(wallet.NativeAsset(c.Chain()), new(big.Int).SetUint64(fee))
}
