package cosmos

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of the Cosmos SDK REST gateway used by the client.
type Node interface {
	Account(ctx context.Context, address string) (*Account, error)
	Broadcast(ctx context.Context, txBytes []byte) (*TxResponse, error)
	// Transaction returns nil while the hash is unknown.
	Transaction(ctx context.Context, hash string) (*TxResponse, error)
}

type Account struct {
	AccountNumber uint64
	Sequence      uint64
}

type TxResponse struct {
	TxHash  string `json:"txhash"`
	Height  string `json:"height"`
	Code    uint32 `json:"code"`
	RawLog  string `json:"raw_log"`
	GasUsed string `json:"gas_used"`
}

type restNode struct {
	rest *node.REST
}

// NewRESTNode creates a Node over the /cosmos REST gateway.
//
//nolint:ireturn
func NewRESTNode(rest *node.REST) Node {
	return &restNode{rest: rest}
}

type baseAccount struct {
	AccountNumber string `json:"account_number"`
	Sequence      string `json:"sequence"`
}

// accountJSON covers plain, module and vesting accounts.
type accountJSON struct {
	baseAccount
	BaseAccount        *baseAccount `json:"base_account"`
	BaseVestingAccount *struct {
		BaseAccount *baseAccount `json:"base_account"`
	} `json:"base_vesting_account"`
}

func (a accountJSON) base() baseAccount {
	switch {
	case a.BaseVestingAccount != nil && a.BaseVestingAccount.BaseAccount != nil:
		return *a.BaseVestingAccount.BaseAccount
	case a.BaseAccount != nil:
		return *a.BaseAccount
	default:
		return a.baseAccount
	}
}

func (n *restNode) Account(ctx context.Context, address string) (*Account, error) {
	var resp struct {
		Account accountJSON `json:"account"`
	}
	if err := n.rest.Get(ctx, "/cosmos/auth/v1beta1/accounts/"+address, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}

	base := resp.Account.base()

	number, err := parseUint(base.AccountNumber)
	if err != nil {
		return nil, errors.Wrap(err, "invalid account number")
	}

	sequence, err := parseUint(base.Sequence)
	if err != nil {
		return nil, errors.Wrap(err, "invalid sequence")
	}

	return &Account{AccountNumber: number, Sequence: sequence}, nil
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}

	return strconv.ParseUint(s, 10, 64)
}

func (n *restNode) Broadcast(ctx context.Context, txBytes []byte) (*TxResponse, error) {
	req := map[string]string{
		"tx_bytes": base64.StdEncoding.EncodeToString(txBytes),
		"mode":     broadcastModeSync,
	}

	var resp struct {
		TxResponse TxResponse `json:"tx_response"`
	}
	if err := n.rest.Post(ctx, "/cosmos/tx/v1beta1/txs", req, &resp); err != nil {
		return nil, err
	}

	return &resp.TxResponse, nil
}

func (n *restNode) Transaction(ctx context.Context, hash string) (*TxResponse, error) {
	var resp struct {
		TxResponse TxResponse `json:"tx_response"`
	}
	if err := n.rest.Get(ctx, "/cosmos/tx/v1beta1/txs/"+hash, &resp); err != nil {
		if isUnknownTx(err) {
			return nil, nil //nolint:nilnil
		}
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	return &resp.TxResponse, nil
}

func isUnknownTx(err error) bool {
	if node.IsNotFound(err) {
		return true
	}

	var httpErr *node.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(httpErr.Body), "not found")
}
