package stellar

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of the Horizon API used by the client.
type Node interface {
	// Account returns nil for an account that does not exist.
	Account(ctx context.Context, id string) (*Account, error)
	FeeStats(ctx context.Context) (*FeeStats, error)
	Submit(ctx context.Context, envelope string) (string, error)
	// Transaction returns nil while the hash is unknown.
	Transaction(ctx context.Context, hash string) (*Transaction, error)
}

type Balance struct {
	Balance     string `json:"balance"`
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code"`
	AssetIssuer string `json:"asset_issuer"`
}

type Account struct {
	ID            string    `json:"id"`
	Sequence      string    `json:"sequence"`
	SubentryCount uint32    `json:"subentry_count"`
	Balances      []Balance `json:"balances"`
}

// NativeBalance returns the XLM balance in its decimal form.
func (a *Account) NativeBalance() string {
	for _, b := range a.Balances {
		if b.AssetType == "native" {
			return b.Balance
		}
	}

	return "0"
}

type FeeStats struct {
	LastLedgerBaseFee string `json:"last_ledger_base_fee"`
	FeeCharged        struct {
		P10 string `json:"p10"`
		P50 string `json:"p50"`
		P90 string `json:"p90"`
	} `json:"fee_charged"`
}

type Transaction struct {
	Hash       string `json:"hash"`
	Successful bool   `json:"successful"`
	FeeCharged string `json:"fee_charged"`
	Ledger     int64  `json:"ledger"`
}

type horizonNode struct {
	rest *node.REST
}

// NewHorizonNode creates a Node over a Horizon instance.
//
//nolint:ireturn
func NewHorizonNode(rest *node.REST) Node {
	return &horizonNode{rest: rest}
}

func (n *horizonNode) Account(ctx context.Context, id string) (*Account, error) {
	var account Account
	if err := n.rest.Get(ctx, "/accounts/"+url.PathEscape(id), &account); err != nil {
		if node.IsNotFound(err) {
			return nil, nil //nolint:nilnil
		}
		return nil, errors.Wrap(err, "failed to get account")
	}

	return &account, nil
}

func (n *horizonNode) FeeStats(ctx context.Context) (*FeeStats, error) {
	var stats FeeStats
	if err := n.rest.Get(ctx, "/fee_stats", &stats); err != nil {
		return nil, errors.Wrap(err, "failed to get fee stats")
	}

	return &stats, nil
}

func (n *horizonNode) Submit(ctx context.Context, envelope string) (string, error) {
	form := url.Values{"tx": {envelope}}

	var out Transaction
	if err := n.rest.PostRaw(ctx, "/transactions", "application/x-www-form-urlencoded", []byte(form.Encode()), &out); err != nil {
		return "", err
	}

	return out.Hash, nil
}

func (n *horizonNode) Transaction(ctx context.Context, hash string) (*Transaction, error) {
	var tx Transaction
	if err := n.rest.Get(ctx, "/transactions/"+url.PathEscape(hash), &tx); err != nil {
		if node.IsNotFound(err) {
			return nil, nil //nolint:nilnil
		}
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	return &tx, nil
}
