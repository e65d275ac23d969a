package stellar

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/stellar/go/amount"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
)

// minBaseFee is the protocol minimum fee per operation, in stroops.
const minBaseFee = 100

// Preload reads the source and destination accounts together with the fee stats. A missing
// destination is funded with CreateAccount, which only native transfers can do. Native
// transfers must leave the account reserve behind.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	if intent.Type != wallet.TransactionTypeTransfer {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrUnsupportedTransfer, string(intent.Type))
	}
	if _, err := parseAsset(intent.AssetID); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	var (
		source, destination *Account
		stats               *FeeStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		source, err = c.node.Account(gctx, intent.From)
		return err
	})
	g.Go(func() error {
		var err error
		destination, err = c.node.Account(gctx, intent.To)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = c.node.FeeStats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	if source == nil {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrNotFound, "account is not activated")
	}

	native := intent.AssetID.IsNative()
	if destination == nil && !native {
		return nil, wallet.NewPreloadError(c.Chain(), wallet.ErrNotFound, "destination account does not exist")
	}

	sequence, err := strconv.ParseInt(source.Sequence, 10, 64)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), errors.Wrapf(err, "invalid sequence %q", source.Sequence), "")
	}

	stroops, err := amount.ParseInt64(source.NativeBalance())
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), errors.Wrap(err, "invalid balance"), "")
	}
	balance := big.NewInt(stroops)

	fees := c.fees(stats)
	fee := fees.Default()
	reserve := c.reserve(source.SubentryCount)

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

	data := wallet.StellarSignData{
		FeeSet:        fees,
		Sequence:      sequence,
		ValidUntil:    time.Now().Unix() + validityWindow,
		CreateAccount: destination == nil,
	}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: fee}, nil
}

func (c *Client) CalculateFees(ctx context.Context, _ wallet.TransferIntent) ([]wallet.Fee, error) {
	stats, err := c.node.FeeStats(ctx)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	return c.fees(stats), nil
}

// fees maps the 10th, 50th and 90th percentile of recently charged fees to the three tiers,
// never below the last ledger's base fee. Transfers carry a single operation.
func (c *Client) fees(stats *FeeStats) wallet.FeeSet {
	base := atLeast(minBaseFee, stats.LastLedgerBaseFee)
	asset := wallet.NativeAsset(c.Chain())

	return wallet.FeeSet{
		{AssetID: asset, Priority: wallet.FeePrioritySlow, Amount: atLeast(base.Int64(), stats.FeeCharged.P10)},
		{AssetID: asset, Priority: wallet.FeePriorityNormal, Amount: atLeast(base.Int64(), stats.FeeCharged.P50)},
		{AssetID: asset, Priority: wallet.FeePriorityFast, Amount: atLeast(base.Int64(), stats.FeeCharged.P90)},
	}
}

// reserve is the minimum balance of an account with the given subentries. The configured
// reserve covers the two base entries.
func (c *Client) reserve(subentries uint32) *big.Int {
	base, ok := new(big.Int).SetString(c.cfg.Reserve, 10)
	if !ok {
		return new(big.Int)
	}

	perEntry := new(big.Int).Div(base, big.NewInt(subentryShare))

	return base.Add(base, perEntry.Mul(perEntry, big.NewInt(int64(subentries))))
}

func atLeast(floor int64, v string) *big.Int {
	out := big.NewInt(floor)
	if n, ok := new(big.Int).SetString(v, 10); ok && n.Cmp(out) > 0 {
		out = n
	}

	return out
}
