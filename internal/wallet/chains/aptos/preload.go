package aptos

import (
	"context"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

const minGasUnitPrice = 100

// Preload fetches sequence, ledger info and gas price estimates concurrently. Native transfers
// are simulated for their gas usage; token transfers use a fixed max gas amount.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	var (
		sequence uint64
		ledger   *LedgerInfo
		estimate *GasEstimate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sequence, err = c.node.Sequence(gctx, intent.From)
		return err
	})
	g.Go(func() error {
		var err error
		ledger, err = c.node.Ledger(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		estimate, err = c.node.GasPrice(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	ledgerMicros, err := strconv.ParseUint(ledger.LedgerTimestamp, 10, 64)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), errors.Wrap(err, "invalid ledger timestamp"), "")
	}

	data := wallet.AptosSignData{
		ChainID:    ledger.ChainID,
		Sequence:   sequence,
		Expiration: ledgerMicros/1_000_000 + expirationWindow,
	}

	prices := tierPrices(estimate)

	maxGas := uint64(tokenMaxGasAmount)
	if intent.AssetID.IsNative() {
		maxGas, err = c.simulate(ctx, intent, data, prices[wallet.FeePriorityNormal])
		if err != nil {
			return nil, wallet.NewPreloadError(c.Chain(), err, "")
		}
	}

	for _, priority := range wallet.FeePriorities() {
		price := prices[priority]
		data.FeeSet = append(data.FeeSet, wallet.Fee{
			AssetID:  wallet.NativeAsset(c.Chain()),
			Priority: priority,
			Amount:   new(big.Int).Mul(new(big.Int).SetUint64(price), new(big.Int).SetUint64(maxGas)),
			GasLimit: maxGas,
			GasPrice: new(big.Int).SetUint64(price),
		})
	}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: data.Default()}, nil
}

func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	params, err := c.Preload(ctx, intent)
	if err != nil {
		return nil, err
	}

	data, _ := params.Data.(wallet.AptosSignData)

	return data.FeeSet, nil
}

// tierPrices maps the node's estimates to tiers: Slow the regular estimate, Normal the
// prioritized estimate and Fast twice that.
func tierPrices(estimate *GasEstimate) map[wallet.FeePriority]uint64 {
	atLeast := func(v uint64) uint64 {
		if v < minGasUnitPrice {
			return minGasUnitPrice
		}
		return v
	}

	prioritized := atLeast(estimate.PrioritizedGasEstimate)

	return map[wallet.FeePriority]uint64{
		wallet.FeePrioritySlow:   atLeast(estimate.GasEstimate),
		wallet.FeePriorityNormal: prioritized,
		wallet.FeePriorityFast:   prioritized * 2,
	}
}

// simulate returns the buffered gas usage of the transfer.
func (c *Client) simulate(ctx context.Context, intent wallet.TransferIntent, data wallet.AptosSignData, price uint64) (uint64, error) {
	amount := uint64(0)
	if intent.Amount != nil {
		amount = intent.Amount.Uint64()
	}

	raw, err := buildTransaction(intent, data, amount, simulateMaxGas, price)
	if err != nil {
		return 0, err
	}

	result, err := c.node.Simulate(ctx, simulationTransaction(raw.encode()))
	if err != nil {
		return 0, err
	}
	if !result.Success {
		return 0, errors.Errorf("simulation failed: %s", result.VMStatus)
	}

	used, err := strconv.ParseUint(result.GasUsed, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid gas used %q", result.GasUsed)
	}

	return used * gasBufferNum / gasBufferDen, nil
}

// buildTransaction encodes aptos_account::transfer for the native coin and
// aptos_account::transfer_coins<CoinType> for tokens.
func buildTransaction(intent wallet.TransferIntent, data wallet.AptosSignData, amount, maxGas, price uint64) (*rawTransaction, error) {
	sender, err := accountAddress(intent.From)
	if err != nil {
		return nil, err
	}

	recipient, err := accountAddress(intent.To)
	if err != nil {
		return nil, err
	}

	framework, _ := accountAddress("0x1")
	payload := entryFunction{
		module: structTag{address: framework, module: "aptos_account", name: "transfer"},
		args:   [][]byte{recipient[:], u64Arg(amount)},
	}

	if !intent.AssetID.IsNative() {
		coin, err := parseStructTag(intent.AssetID.TokenID)
		if err != nil {
			return nil, err
		}
		payload.module.name = "transfer_coins"
		payload.typeArgs = []structTag{coin}
	}

	return &rawTransaction{
		sender:       sender,
		sequence:     data.Sequence,
		payload:      payload,
		maxGasAmount: maxGas,
		gasUnitPrice: price,
		expiration:   data.Expiration,
		chainID:      data.ChainID,
	}, nil
}
