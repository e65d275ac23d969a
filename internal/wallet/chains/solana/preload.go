package solana

import (
	"context"
	"math/big"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Preload fetches the blockhash, recent prioritization fees and, for token transfers, whether
// the recipient's associated token account exists.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	from, to, err := parseParties(intent)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	data := wallet.SolanaSignData{}

	var recipientAccount *solana.PublicKey
	if !intent.AssetID.IsNative() {
		mint, err := solana.PublicKeyFromBase58(intent.AssetID.TokenID)
		if err != nil {
			return nil, wallet.NewPreloadError(c.Chain(), errors.Wrap(err, "invalid token mint"), "")
		}

		sender, recipient, err := tokenAccounts(from, to, mint)
		if err != nil {
			return nil, wallet.NewPreloadError(c.Chain(), err, "")
		}
		data.SenderTokenAccount = sender.String()
		data.RecipientTokenAccount = recipient.String()
		recipientAccount = &recipient
	}

	var (
		blockhash solana.Hash
		fees      []wallet.Fee
		exists    = true
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blockhash, err = c.node.LatestBlockhash(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fees, err = c.fees(gctx, from)
		return err
	})
	if recipientAccount != nil {
		g.Go(func() error {
			var err error
			exists, err = c.node.AccountExists(gctx, *recipientAccount)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	data.FeeSet = fees
	data.RecentBlockhash = blockhash.String()
	data.CreateRecipientAccount = !exists

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: data.Default()}, nil
}

func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	from, err := solana.PublicKeyFromBase58(intent.From)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), errors.Wrap(err, "invalid sender"), "")
	}

	fees, err := c.fees(ctx, from)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	return fees, nil
}

// fees prices every tier at a percentile of recent non-zero prioritization fees. The fee is the
// base signature fee plus unit price * unit limit, rounded up to whole lamports.
func (c *Client) fees(ctx context.Context, from solana.PublicKey) ([]wallet.Fee, error) {
	samples, err := c.node.PrioritizationFees(ctx, []solana.PublicKey{from})
	if err != nil {
		return nil, err
	}

	nonZero := make([]uint64, 0, len(samples))
	for _, s := range samples {
		if s > 0 {
			nonZero = append(nonZero, s)
		}
	}
	if len(nonZero) > maxFeeSampleCount {
		nonZero = nonZero[len(nonZero)-maxFeeSampleCount:]
	}
	sort.Slice(nonZero, func(i, j int) bool { return nonZero[i] < nonZero[j] })

	fees := make([]wallet.Fee, 0, len(tierPercentiles))
	for _, priority := range wallet.FeePriorities() {
		price := uint64(defaultUnitPrice)
		if len(nonZero) > 0 {
			price = nonZero[(len(nonZero)-1)*tierPercentiles[priority]/100]
		}

		priorityFee := new(big.Int).Mul(new(big.Int).SetUint64(price), big.NewInt(computeUnitLimit))
		priorityFee.Add(priorityFee, big.NewInt(microLamports-1))
		priorityFee.Div(priorityFee, big.NewInt(microLamports))

		fees = append(fees, wallet.Fee{
			AssetID:  wallet.NativeAsset(c.Chain()),
			Priority: priority,
			Amount:   new(big.Int).Add(priorityFee, big.NewInt(baseFeeLamports)),
			GasLimit: computeUnitLimit,
			GasPrice: new(big.Int).SetUint64(price),
			MinerFee: priorityFee,
		})
	}

	return fees, nil
}

func parseParties(intent wallet.TransferIntent) (solana.PublicKey, solana.PublicKey, error) {
	from, err := solana.PublicKeyFromBase58(intent.From)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, errors.Wrapf(err, "invalid sender %s", intent.From)
	}

	to, err := solana.PublicKeyFromBase58(intent.To)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, errors.Wrapf(err, "invalid recipient %s", intent.To)
	}

	return from, to, nil
}

func tokenAccounts(from, to, mint solana.PublicKey) (solana.PublicKey, solana.PublicKey, error) {
	sender, _, err := solana.FindAssociatedTokenAddress(from, mint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, errors.Wrap(err, "failed to derive sender token account")
	}

	recipient, _, err := solana.FindAssociatedTokenAddress(to, mint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, errors.Wrap(err, "failed to derive recipient token account")
	}

	return sender, recipient, nil
}
