package cardano

import (
	"context"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Preload fetches the sender's UTXOs and the chain tip concurrently and plans the transfer.
// Cardano fees are deterministic, so a single Normal quote is returned.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	if !intent.IsNativeTransfer() {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrUnsupportedTransfer, "only native ada transfers are supported")
	}

	pl, amount, err := c.planner(intent, 0)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	var (
		utxos []wallet.UTXO
		slot  uint64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		utxos, err = c.node.UTXOs(gctx, intent.From)
		return err
	})
	g.Go(func() error {
		var err error
		slot, err = c.node.LatestSlot(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	pl.ttl = slot + ttlSlots

	p, err := pl.build(utxos, amount, intent.UseMaxAmount)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	fees := wallet.SingleFee(wallet.NativeAsset(c.Chain()), new(big.Int).SetUint64(p.fee))
	fees[0].GasLimit = uint64(p.size)
	fees[0].GasPrice = big.NewInt(minFeeA)

	data := wallet.CardanoSignData{FeeSet: fees, UTXOs: utxos, TTL: pl.ttl}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: data.Default()}, nil
}

func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	params, err := c.Preload(ctx, intent)
	if err != nil {
		return nil, err
	}

	data, _ := params.Data.(wallet.CardanoSignData)

	return data.FeeSet, nil
}

func (c *Client) planner(intent wallet.TransferIntent, ttl uint64) (planner, uint64, error) {
	from, err := decodeAddress(c.cfg, intent.From)
	if err != nil {
		return planner{}, 0, err
	}

	to, err := decodeAddress(c.cfg, intent.To)
	if err != nil {
		return planner{}, 0, err
	}

	amount, err := lovelace(intent.Amount)
	if err != nil {
		return planner{}, 0, err
	}

	return planner{from: from, to: to, ttl: ttl}, amount, nil
}
