package sui

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Preload has the node build the transfer at the reference gas price, dry runs it for the fee
// and carries the bytes to sign as "base64(txBytes)_hex(digest)".
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	var (
		gasCoins   []Coin
		tokenCoins []Coin
		gasPrice   uint64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gasCoins, err = c.node.Coins(gctx, intent.From, nativeCoinType)
		return err
	})
	g.Go(func() error {
		var err error
		gasPrice, err = c.node.ReferenceGasPrice(gctx)
		return err
	})
	if !intent.AssetID.IsNative() {
		g.Go(func() error {
			var err error
			tokenCoins, err = c.node.Coins(gctx, intent.From, intent.AssetID.TokenID)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	if gasPrice == 0 {
		gasPrice = defaultGasPrice
	}

	txBytes, err := c.build(ctx, intent, gasCoins, tokenCoins)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	effects, err := c.node.DryRun(ctx, txBytes)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}
	if effects.Status.Status != "success" {
		return nil, wallet.NewPreloadError(c.Chain(), nil, "dry run failed: "+effects.Status.Error)
	}

	raw, err := base64.StdEncoding.DecodeString(txBytes)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), errors.Wrap(err, "invalid transaction bytes"), "")
	}
	sum := digest(raw)

	fee := wallet.Fee{
		AssetID:  wallet.NativeAsset(c.Chain()),
		Priority: wallet.FeePriorityNormal,
		Amount:   gasFee(effects.GasUsed),
		GasLimit: gasBudget,
		GasPrice: new(big.Int).SetUint64(gasPrice),
	}

	data := wallet.SuiSignData{
		FeeSet:       wallet.FeeSet{fee},
		MessageBytes: txBytes + "_" + hex.EncodeToString(sum[:]),
	}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: fee}, nil
}

func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	params, err := c.Preload(ctx, intent)
	if err != nil {
		return nil, err
	}

	return []wallet.Fee{params.Fee}, nil
}

func (c *Client) build(ctx context.Context, intent wallet.TransferIntent, gasCoins, tokenCoins []Coin) (string, error) {
	amount := "0"
	if intent.Amount != nil {
		amount = intent.Amount.String()
	}

	if intent.AssetID.IsNative() {
		if intent.UseMaxAmount {
			return c.node.PayAllSui(ctx, intent.From, coinIDs(gasCoins), intent.To, gasBudget)
		}

		need := new(big.Int).Add(amountOrZero(intent.Amount), big.NewInt(gasBudget))
		coins, err := selectCoins(gasCoins, need)
		if err != nil {
			return "", err
		}

		return c.node.PaySui(ctx, intent.From, coinIDs(coins), intent.To, amount, gasBudget)
	}

	coins, err := selectCoins(tokenCoins, amountOrZero(intent.Amount))
	if err != nil {
		return "", err
	}
	gas, err := selectCoins(gasCoins, big.NewInt(gasBudget))
	if err != nil {
		return "", err
	}

	return c.node.Pay(ctx, intent.From, coinIDs(coins), intent.To, amount, gas[0].CoinObjectID, gasBudget)
}

// selectCoins takes the largest coins until need is covered.
func selectCoins(coins []Coin, need *big.Int) ([]Coin, error) {
	sorted := append([]Coin(nil), coins...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return balance(sorted[i]).Cmp(balance(sorted[j])) > 0
	})

	total := new(big.Int)
	for i, coin := range sorted {
		total.Add(total, balance(coin))
		if total.Cmp(need) >= 0 {
			return sorted[:i+1], nil
		}
	}

	return nil, errors.Wrapf(ErrInsufficientFunds, "balance %s cannot cover %s", total, need)
}

func balance(c Coin) *big.Int {
	b, ok := new(big.Int).SetString(c.Balance, 10)
	if !ok {
		return new(big.Int)
	}

	return b
}

func coinIDs(coins []Coin) []string {
	ids := make([]string, 0, len(coins))
	for _, c := range coins {
		ids = append(ids, c.CoinObjectID)
	}

	return ids
}

func amountOrZero(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}

	return amount
}

// gasFee is computation plus storage minus the storage rebate, never negative.
func gasFee(used GasUsed) *big.Int {
	fee := new(big.Int)
	for _, v := range []string{used.ComputationCost, used.StorageCost} {
		if n, ok := new(big.Int).SetString(v, 10); ok {
			fee.Add(fee, n)
		}
	}
	if rebate, ok := new(big.Int).SetString(used.StorageRebate, 10); ok {
		fee.Sub(fee, rebate)
	}
	if fee.Sign() < 0 {
		fee.SetInt64(0)
	}

	return fee
}
