package tron

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

const (
	paramCreateAccountFee         = "getCreateAccountFee"
	paramCreateAccountFeeContract = "getCreateNewAccountFeeInSystemContract"
	paramEnergyFee                = "getEnergyFee"
)

// Preload references the latest block and prices the transfer. A native transfer is free
// while the sender has free bandwidth; a TRC-20 transfer pays its estimated energy plus a
// buffer, which also becomes the fee limit. Activating a new recipient costs extra.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	if intent.Type != wallet.TransactionTypeTransfer {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrUnsupportedTransfer, string(intent.Type))
	}

	to, err := decodeAddress(intent.To)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	var (
		block     *Block
		bandwidth *Bandwidth
		params    map[string]int64
		exists    bool
		energy    int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		block, err = c.node.NowBlock(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		bandwidth, err = c.node.AccountBandwidth(gctx, intent.From)
		return err
	})
	g.Go(func() error {
		var err error
		params, err = c.node.ChainParameters(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		exists, err = c.node.AccountExists(gctx, intent.To)
		return err
	})
	if !intent.AssetID.IsNative() {
		g.Go(func() error {
			var err error
			energy, err = c.node.EstimateEnergy(gctx, intent.From, intent.AssetID.TokenID, trc20TransferSelector,
				trc20Parameter(to, amountOrZero(intent.Amount)))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	fee, feeLimit, err := c.fee(intent, bandwidth, params, exists, energy)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	blockID := common.FromHex(block.BlockID)
	if len(blockID) != 32 {
		return nil, wallet.NewPreloadError(c.Chain(), errors.Errorf("invalid block id %q", block.BlockID), "")
	}

	data := wallet.TronSignData{
		FeeSet:         wallet.SingleFee(wallet.NativeAsset(c.Chain()), fee),
		BlockNumber:    block.BlockHeader.RawData.Number,
		BlockHash:      blockID,
		BlockTimestamp: block.BlockHeader.RawData.Timestamp,
		FeeLimit:       feeLimit,
	}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: data.FeeSet.Default()}, nil
}

func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	params, err := c.Preload(ctx, intent)
	if err != nil {
		return nil, err
	}

	return []wallet.Fee{params.Fee}, nil
}

func (c *Client) fee(intent wallet.TransferIntent, bandwidth *Bandwidth, params map[string]int64, exists bool, energy int64) (*big.Int, *big.Int, error) {
	lookup := func(key string) (int64, error) {
		v, ok := params[key]
		if !ok {
			return 0, errors.Errorf("chain parameter %s missing", key)
		}
		return v, nil
	}

	if intent.AssetID.IsNative() {
		fee := new(big.Int)
		if bandwidth.Available() < transferBandwidth {
			fee.SetInt64(transferBurn)
		}
		if !exists {
			activation, err := lookup(paramCreateAccountFee)
			if err != nil {
				return nil, nil, err
			}
			fee.Add(fee, big.NewInt(activation))
		}

		return fee, new(big.Int), nil
	}

	energyFee, err := lookup(paramEnergyFee)
	if err != nil {
		return nil, nil, err
	}

	buffered := energy + (energy*energyBufferPercent+99)/100
	fee := new(big.Int).Mul(big.NewInt(energyFee), big.NewInt(buffered))
	if !exists {
		activation, err := lookup(paramCreateAccountFeeContract)
		if err != nil {
			return nil, nil, err
		}
		fee.Add(fee, big.NewInt(activation))
	}

	return fee, new(big.Int).Set(fee), nil
}

func amountOrZero(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}

	return amount
}
