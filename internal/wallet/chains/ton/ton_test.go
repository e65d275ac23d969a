package ton_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/chains/ton"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

const jettonWallet = "0:1111111111111111111111111111111111111111111111111111111111111111"

type fakeNode struct {
	info      ton.WalletInfo
	fee       int64
	estimates []ton.FeeRequest
	sent      [][]byte
	txs       map[string]*ton.Transaction
	statusErr error
}

func (f *fakeNode) WalletInfo(context.Context, string) (*ton.WalletInfo, error) {
	info := f.info
	return &info, nil
}

func (f *fakeNode) EstimateFee(_ context.Context, req ton.FeeRequest) (*big.Int, error) {
	f.estimates = append(f.estimates, req)
	return big.NewInt(f.fee), nil
}

func (f *fakeNode) JettonWallet(context.Context, string, string) (string, error) {
	return jettonWallet, nil
}

func (f *fakeNode) SendBoc(_ context.Context, boc []byte) (string, error) {
	f.sent = append(f.sent, boc)
	return "msghash", nil
}

func (f *fakeNode) TransactionByMessage(_ context.Context, hash string) (*ton.Transaction, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.txs[hash], nil
}

func seed(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func setup(t *testing.T) (*ton.Client, *fakeNode, string, string) {
	t.Helper()

	from, err := ton.AccountAddress(nil, seed(1))
	require.NoError(t, err)
	to, err := ton.AccountAddress(nil, seed(2))
	require.NoError(t, err)

	n := &fakeNode{
		info: ton.WalletInfo{Wallet: true, Balance: "5000000000", AccountState: "active", Seqno: 5},
		fee:  4_000_000,
		txs:  map[string]*ton.Transaction{},
	}
	cfg := &chain.Config{Chain: chain.Ton, Family: chain.FamilyTon, FeeAmount: "10000000"}

	return ton.New(cfg, n), n, from, to
}

func intent(from, to string, amount int64) wallet.TransferIntent {
	return wallet.TransferIntent{
		Type:    wallet.TransactionTypeTransfer,
		AssetID: wallet.NativeAsset(chain.Ton),
		From:    from,
		To:      to,
		Amount:  big.NewInt(amount),
	}
}

func TestAccountAddress(t *testing.T) {
	addr, err := ton.AccountAddress(nil, seed(1))
	require.NoError(t, err)

	again, err := ton.AccountAddress(nil, seed(1))
	require.NoError(t, err)
	assert.Equal(t, addr, again)

	parsed, err := address.ParseAddr(addr)
	require.NoError(t, err)
	assert.False(t, parsed.IsBounceable())

	other, err := ton.AccountAddress(nil, seed(2))
	require.NoError(t, err)
	assert.NotEqual(t, addr, other)
}

func TestPreloadEstimatesDeployedWallet(t *testing.T) {
	client, n, from, to := setup(t)

	params, err := client.Preload(context.Background(), intent(from, to, 1_000_000))
	require.NoError(t, err)

	data, ok := params.Data.(wallet.TonSignData)
	require.True(t, ok)
	assert.Equal(t, uint32(5), data.Seqno)
	assert.False(t, data.Deploy)
	assert.Positive(t, data.ValidUntil)
	assert.Equal(t, big.NewInt(4_000_000), params.Fee.Amount)

	require.Len(t, n.estimates, 1)
	assert.Equal(t, from, n.estimates[0].Address)
	assert.True(t, n.estimates[0].IgnoreChksig)
	assert.NotEmpty(t, n.estimates[0].Body)
}

func TestPreloadUndeployedUsesConfiguredFee(t *testing.T) {
	client, n, from, to := setup(t)
	n.info = ton.WalletInfo{Balance: "5000000000", AccountState: "uninit"}

	params, err := client.Preload(context.Background(), intent(from, to, 1_000_000))
	require.NoError(t, err)
	assert.Empty(t, n.estimates)
	assert.Equal(t, big.NewInt(10_000_000), params.Fee.Amount)

	data, _ := params.Data.(wallet.TonSignData)
	assert.True(t, data.Deploy)
}

func TestPreloadJettonAddsAttachedAmount(t *testing.T) {
	client, _, from, to := setup(t)

	in := intent(from, to, 500)
	in.AssetID = wallet.AssetID{Chain: chain.Ton, TokenID: "EQCxE6mUtQJKFnGfaROTKOt1lZbDiiX1kCixRv7Nw2Id_sDs"}

	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)

	data, _ := params.Data.(wallet.TonSignData)
	assert.Equal(t, jettonWallet, data.JettonWallet)
	assert.Equal(t, big.NewInt(4_000_000+50_000_000), params.Fee.Amount)

	in.Type = wallet.TransactionTypeSwap
	_, err = client.Preload(context.Background(), in)
	assert.ErrorIs(t, err, wallet.ErrUnsupportedTransfer)
}

func TestSignBuildsExternalMessage(t *testing.T) {
	client, n, from, to := setup(t)

	params, err := client.Preload(context.Background(), intent(from, to, 1_000_000))
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	require.Len(t, signed, 1)

	root, err := cell.FromBOC(signed[0])
	require.NoError(t, err)
	assert.NotEmpty(t, root.Hash())

	// the first message of an undeployed wallet carries the contract code and data
	n.info = ton.WalletInfo{AccountState: "uninit"}
	deploy, err := client.Preload(context.Background(), intent(from, to, 1_000_000))
	require.NoError(t, err)
	withInit, err := client.Sign(context.Background(), deploy, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	assert.Greater(t, len(withInit[0]), len(signed[0]))

	hash, err := client.Send(context.Background(), signed[0])
	require.NoError(t, err)
	assert.Equal(t, "msghash", hash)
	assert.Len(t, n.sent, 1)

	_, err = client.Sign(context.Background(), params, seed(2), wallet.FeePriorityNormal)
	var signErr *wallet.SignError
	require.ErrorAs(t, err, &signErr)

	params.Data = wallet.XrpSignData{}
	_, err = client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	assert.ErrorIs(t, err, wallet.ErrWrongSignData)
}

func TestSignMaxTransfer(t *testing.T) {
	client, _, from, to := setup(t)

	in := intent(from, to, 0)
	in.UseMaxAmount = true
	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)

	_, err = cell.FromBOC(signed[0])
	require.NoError(t, err)
}

func TestGetStatus(t *testing.T) {
	client, n, _, _ := setup(t)
	req := wallet.StatusRequest{Chain: chain.Ton, Hash: "msghash"}

	status, err := client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	var ok ton.Transaction
	ok.TotalFees = "3500000"
	ok.Description.Compute.Success = true
	n.txs["msghash"] = &ok

	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateConfirmed, status.State)
	assert.Equal(t, big.NewInt(3_500_000), status.Fee)

	var aborted ton.Transaction
	aborted.Description.Aborted = true
	n.txs["msghash"] = &aborted

	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateReverted, status.State)

	n.statusErr = errors.New("reset")
	_, err = client.GetStatus(context.Background(), req)
	var statusErr *wallet.StatusError
	require.ErrorAs(t, err, &statusErr)
}

func TestToncenterNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v2/getWalletInformation":
			assert.Equal(t, "EQabc", r.URL.Query().Get("address"))
			_, _ = w.Write([]byte(`{"ok":true,"result":{"wallet":true,"balance":"42","account_state":"active","seqno":7}}`))
		case "/api/v2/estimateFee":
			var req map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, true, req["ignore_chksig"])
			_, _ = w.Write([]byte(`{"ok":true,"result":{"source_fees":{"in_fwd_fee":1,"storage_fee":2,"gas_fee":3,"fwd_fee":4}}}`))
		case "/api/v2/sendBocReturnHash":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"hash":"abc="}}`))
		case "/api/v3/transactionsByMessage":
			assert.Equal(t, "in", r.URL.Query().Get("direction"))
			_, _ = w.Write([]byte(`{"transactions":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	selector := node.NewSelector(map[chain.Chain][]string{chain.Ton: {srv.URL}})
	rest := ton.NewToncenterNode(node.NewREST(chain.Ton, selector))
	ctx := context.Background()

	info, err := rest.WalletInfo(ctx, "EQabc")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), info.Seqno)
	assert.True(t, info.Deployed())

	fee, err := rest.EstimateFee(ctx, ton.FeeRequest{Address: "EQabc", Body: "te6c", IgnoreChksig: true})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), fee)

	hash, err := rest.SendBoc(ctx, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "abc=", hash)

	tx, err := rest.TransactionByMessage(ctx, "abc=")
	require.NoError(t, err)
	assert.Nil(t, tx)

	_, err = rest.JettonWallet(ctx, "EQabc", "EQmaster")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "jetton wallet"))
}
