package polkadot

import (
	"context"
	"crypto/ed25519"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

// estimationKey signs the draft extrinsic used for fee estimation. The fee does not depend
// on the signer.
var estimationKey = ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))

// Preload fetches the transaction material and the sender's nonce, then asks the node for
// the partial fee of a draft extrinsic with the same call.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	if intent.Type != wallet.TransactionTypeTransfer || !intent.AssetID.IsNative() {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrUnsupportedTransfer, string(intent.Type))
	}

	var (
		material *Material
		nonce    uint64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		material, err = c.node.Material(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		nonce, err = c.node.Nonce(gctx, intent.From)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	data, err := signData(material, nonce)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	call, err := transferCall(intent.To, amountOrZero(intent.Amount), intent.UseMaxAmount)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	draft := extrinsic{call: call, data: data}.sign(estimationKey)

	partialFee, err := c.node.EstimateFee(ctx, hexutil.Encode(draft))
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	amount, ok := new(big.Int).SetString(partialFee, 10)
	if !ok {
		return nil, wallet.NewPreloadError(c.Chain(), errors.Errorf("invalid partial fee %q", partialFee), "")
	}

	data.FeeSet = wallet.SingleFee(wallet.NativeAsset(c.Chain()), amount)

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: data.FeeSet.Default()}, nil
}

func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	params, err := c.Preload(ctx, intent)
	if err != nil {
		return nil, err
	}

	return []wallet.Fee{params.Fee}, nil
}

func amountOrZero(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}

	return amount
}
