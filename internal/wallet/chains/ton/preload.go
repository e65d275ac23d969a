package ton

import (
	"context"
	"encoding/base64"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Preload reads the wallet state (and the sender's jetton wallet for tokens) and estimates the
// fee of the external message. A wallet that is not deployed cannot be simulated without its
// public key, its fee is the configured fee_amount.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	if intent.Type != wallet.TransactionTypeTransfer {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrUnsupportedTransfer, string(intent.Type))
	}

	var (
		info         *WalletInfo
		jettonWallet string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = c.node.WalletInfo(gctx, intent.From)
		return err
	})
	if !intent.AssetID.IsNative() {
		g.Go(func() error {
			var err error
			jettonWallet, err = c.node.JettonWallet(gctx, intent.From, intent.AssetID.TokenID)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	data := wallet.TonSignData{
		Seqno:        info.Seqno,
		ValidUntil:   uint32(time.Now().Unix()) + validityWindow, //nolint:gosec
		Deploy:       !info.Deployed(),
		JettonWallet: jettonWallet,
	}

	fee, err := c.estimate(ctx, intent, data)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}
	if !intent.AssetID.IsNative() {
		fee.Add(fee, big.NewInt(jettonAttachedAmount))
	}

	data.FeeSet = wallet.SingleFee(wallet.NativeAsset(c.Chain()), fee)

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: data.Default()}, nil
}

func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	params, err := c.Preload(ctx, intent)
	if err != nil {
		return nil, err
	}

	data, _ := params.Data.(wallet.TonSignData)

	return data.FeeSet, nil
}

func (c *Client) estimate(ctx context.Context, intent wallet.TransferIntent, data wallet.TonSignData) (*big.Int, error) {
	if data.Deploy {
		fee, ok := new(big.Int).SetString(c.cfg.FeeAmount, 10)
		if !ok {
			return nil, errors.Errorf("invalid fee_amount %q", c.cfg.FeeAmount)
		}
		return fee, nil
	}

	var amount *big.Int
	if !intent.UseMaxAmount || !intent.AssetID.IsNative() {
		amount = intent.Amount
	}

	t, err := buildTransfer(intent, data, amount)
	if err != nil {
		return nil, err
	}

	payload, err := signingPayload(t, data)
	if err != nil {
		return nil, err
	}

	body := cell.BeginCell().
		MustStoreSlice(make([]byte, 64), 512).
		MustStoreBuilder(payload).
		EndCell()

	return c.node.EstimateFee(ctx, FeeRequest{
		Address:      intent.From,
		Body:         base64.StdEncoding.EncodeToString(body.ToBOC()),
		IgnoreChksig: true,
	})
}
