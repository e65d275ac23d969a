package ton

import (
	"context"
	"encoding/base64"
	"math/big"
	"net/url"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of the toncenter v2 and v3 APIs used by the client.
type Node interface {
	WalletInfo(ctx context.Context, address string) (*WalletInfo, error)
	// EstimateFee returns the total source fees of an external message with an unchecked
	// signature.
	EstimateFee(ctx context.Context, req FeeRequest) (*big.Int, error)
	JettonWallet(ctx context.Context, owner, master string) (string, error)
	SendBoc(ctx context.Context, boc []byte) (string, error)
	// TransactionByMessage returns nil while no transaction processed the message.
	TransactionByMessage(ctx context.Context, msgHash string) (*Transaction, error)
}

type WalletInfo struct {
	Wallet       bool   `json:"wallet"`
	Balance      string `json:"balance"`
	AccountState string `json:"account_state"`
	Seqno        uint32 `json:"seqno"`
}

// Deployed reports an active wallet contract.
func (w *WalletInfo) Deployed() bool {
	return w.AccountState == "active"
}

type FeeRequest struct {
	Address      string `json:"address"`
	Body         string `json:"body"`
	IgnoreChksig bool   `json:"ignore_chksig"`
}

type Transaction struct {
	Hash        string `json:"hash"`
	TotalFees   string `json:"total_fees"`
	Description struct {
		Aborted bool `json:"aborted"`
		Compute struct {
			Skipped  bool `json:"skipped"`
			Success  bool `json:"success"`
			ExitCode int  `json:"exit_code"`
		} `json:"compute_ph"`
		Action *struct {
			Success bool `json:"success"`
		} `json:"action"`
	} `json:"description"`
}

// Succeeded reports a transaction whose compute and action phases both succeeded.
func (t *Transaction) Succeeded() bool {
	d := t.Description
	if d.Aborted || d.Compute.Skipped || !d.Compute.Success {
		return false
	}

	return d.Action == nil || d.Action.Success
}

// v2 answers are wrapped in {"ok": ..., "result": ...}
type envelope[T any] struct {
	OK     bool   `json:"ok"`
	Result T      `json:"result"`
	Error  string `json:"error"`
}

func (e *envelope[T]) err() error {
	if e.OK {
		return nil
	}

	return errors.Errorf("toncenter: %s", e.Error)
}

type toncenterNode struct {
	rest *node.REST
}

// NewToncenterNode creates a Node over a toncenter instance.
//
//nolint:ireturn
func NewToncenterNode(rest *node.REST) Node {
	return &toncenterNode{rest: rest}
}

func (n *toncenterNode) WalletInfo(ctx context.Context, address string) (*WalletInfo, error) {
	var out envelope[WalletInfo]
	if err := n.rest.Get(ctx, "/api/v2/getWalletInformation?address="+url.QueryEscape(address), &out); err != nil {
		return nil, errors.Wrap(err, "failed to get wallet information")
	}
	if err := out.err(); err != nil {
		return nil, err
	}

	return &out.Result, nil
}

func (n *toncenterNode) EstimateFee(ctx context.Context, req FeeRequest) (*big.Int, error) {
	var out envelope[struct {
		SourceFees struct {
			InFwdFee   int64 `json:"in_fwd_fee"`
			StorageFee int64 `json:"storage_fee"`
			GasFee     int64 `json:"gas_fee"`
			FwdFee     int64 `json:"fwd_fee"`
		} `json:"source_fees"`
	}]
	if err := n.rest.Post(ctx, "/api/v2/estimateFee", req, &out); err != nil {
		return nil, errors.Wrap(err, "failed to estimate fee")
	}
	if err := out.err(); err != nil {
		return nil, err
	}

	f := out.Result.SourceFees

	return big.NewInt(f.InFwdFee + f.StorageFee + f.GasFee + f.FwdFee), nil
}

func (n *toncenterNode) JettonWallet(ctx context.Context, owner, master string) (string, error) {
	query := url.Values{
		"owner_address":  {owner},
		"jetton_address": {master},
		"limit":          {"1"},
	}

	var out struct {
		JettonWallets []struct {
			Address string `json:"address"`
		} `json:"jetton_wallets"`
	}
	if err := n.rest.Get(ctx, "/api/v3/jetton/wallets?"+query.Encode(), &out); err != nil {
		return "", errors.Wrap(err, "failed to get jetton wallet")
	}
	if len(out.JettonWallets) == 0 {
		return "", errors.Errorf("no %s jetton wallet for %s", master, owner)
	}

	return out.JettonWallets[0].Address, nil
}

func (n *toncenterNode) SendBoc(ctx context.Context, boc []byte) (string, error) {
	body := map[string]string{"boc": base64.StdEncoding.EncodeToString(boc)}

	var out envelope[struct {
		Hash string `json:"hash"`
	}]
	if err := n.rest.Post(ctx, "/api/v2/sendBocReturnHash", body, &out); err != nil {
		return "", err
	}
	if err := out.err(); err != nil {
		return "", err
	}

	return out.Result.Hash, nil
}

func (n *toncenterNode) TransactionByMessage(ctx context.Context, msgHash string) (*Transaction, error) {
	query := url.Values{
		"msg_hash":  {msgHash},
		"direction": {"in"},
		"limit":     {"1"},
	}

	var out struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := n.rest.Get(ctx, "/api/v3/transactionsByMessage?"+query.Encode(), &out); err != nil {
		if node.IsNotFound(err) {
			return nil, nil //nolint:nilnil
		}
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	if len(out.Transactions) == 0 {
		return nil, nil //nolint:nilnil
	}

	return &out.Transactions[0], nil
}
