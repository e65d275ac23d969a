package bitcoin

import (
	"context"
	"encoding/hex"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

// Node is the subset of a Blockbook indexer used by the Bitcoin family clients.
type Node interface {
	UTXOs(ctx context.Context, address string) ([]wallet.UTXO, error)
	// EstimateFee returns the fee rate in satoshi per kB for a confirmation target.
	EstimateFee(ctx context.Context, blocks int) (*big.Int, error)
	SendTransaction(ctx context.Context, raw []byte) (string, error)
	// Transaction returns nil when the indexer does not know the transaction.
	Transaction(ctx context.Context, txid string) (*TxInfo, error)
}

type TxInfo struct {
	TxID          string `json:"txid"`
	BlockHeight   int64  `json:"blockHeight"`
	Confirmations int64  `json:"confirmations"`
	Fees          string `json:"fees"`
}

type blockbook struct {
	rest *node.REST
}

// NewBlockbook creates a Node over the Blockbook v2 REST API.
//
//nolint:ireturn
func NewBlockbook(rest *node.REST) Node {
	return &blockbook{rest: rest}
}

type blockbookUTXO struct {
	TxID  string `json:"txid"`
	Vout  uint32 `json:"vout"`
	Value string `json:"value"`
}

func (b *blockbook) UTXOs(ctx context.Context, address string) ([]wallet.UTXO, error) {
	var resp []blockbookUTXO
	if err := b.rest.Get(ctx, "/api/v2/utxo/"+address+"?confirmed=true", &resp); err != nil {
		return nil, errors.Wrap(err, "failed to get utxos")
	}

	utxos := make([]wallet.UTXO, 0, len(resp))
	for _, u := range resp {
		value, err := strconv.ParseInt(u.Value, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid utxo value %q", u.Value)
		}
		utxos = append(utxos, wallet.UTXO{TxID: u.TxID, Vout: u.Vout, Amount: value, Address: address})
	}

	return utxos, nil
}

func (b *blockbook) EstimateFee(ctx context.Context, blocks int) (*big.Int, error) {
	var resp struct {
		Result string `json:"result"`
	}
	if err := b.rest.Get(ctx, "/api/v2/estimatefee/"+strconv.Itoa(blocks), &resp); err != nil {
		return nil, errors.Wrap(err, "failed to estimate fee")
	}

	// coins per kB
	perKB, err := decimal.NewFromString(resp.Result)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid fee estimate %q", resp.Result)
	}

	//nolint:mnd
	return perKB.Shift(8).Ceil().BigInt(), nil
}

func (b *blockbook) SendTransaction(ctx context.Context, raw []byte) (string, error) {
	var resp struct {
		Result string `json:"result"`
		Error  string `json:"error"`
	}
	if err := b.rest.Get(ctx, "/api/v2/sendtx/"+hex.EncodeToString(raw), &resp); err != nil {
		return "", err
	}

	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}

	return resp.Result, nil
}

func (b *blockbook) Transaction(ctx context.Context, txid string) (*TxInfo, error) {
	var info TxInfo
	if err := b.rest.Get(ctx, "/api/v2/tx/"+txid, &info); err != nil {
		if isUnknownTx(err) {
			return nil, nil //nolint:nilnil
		}
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	return &info, nil
}

// isUnknownTx recognises Blockbook's "transaction not found" answers (400 or 404).
func isUnknownTx(err error) bool {
	if node.IsNotFound(err) {
		return true
	}

	var httpErr *node.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(httpErr.Body), "not found")
}
