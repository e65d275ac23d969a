package algorand_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/chains/algorand"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

type fakeNode struct {
	params    algorand.Params
	account   algorand.Account
	submitted [][]byte
	pending   map[string]*algorand.PendingTransaction
	statusErr error
}

func (f *fakeNode) Params(context.Context) (*algorand.Params, error) {
	params := f.params
	return &params, nil
}

func (f *fakeNode) Account(context.Context, string) (*algorand.Account, error) {
	account := f.account
	return &account, nil
}

func (f *fakeNode) Submit(_ context.Context, signed []byte) (string, error) {
	f.submitted = append(f.submitted, signed)
	return "TXID", nil
}

func (f *fakeNode) Pending(_ context.Context, txID string) (*algorand.PendingTransaction, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.pending[txID], nil
}

func seed(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func setup(t *testing.T) (*algorand.Client, *fakeNode, string, string) {
	t.Helper()

	from, err := algorand.AccountAddress(nil, seed(1))
	require.NoError(t, err)
	to, err := algorand.AccountAddress(nil, seed(2))
	require.NoError(t, err)

	n := &fakeNode{
		params: algorand.Params{
			GenesisID:   "testnet-v1.0",
			GenesisHash: bytes.Repeat([]byte{3}, 32),
			LastRound:   100,
			MinFee:      1000,
		},
		account: algorand.Account{Amount: 5_000_000, MinBalance: 100_000},
		pending: map[string]*algorand.PendingTransaction{},
	}
	cfg := &chain.Config{Chain: chain.Algorand, Family: chain.FamilyAlgorand, Reserve: "100000"}

	return algorand.New(cfg, n), n, from, to
}

func intent(from, to string, amount int64) wallet.TransferIntent {
	return wallet.TransferIntent{
		Type:    wallet.TransactionTypeTransfer,
		AssetID: wallet.NativeAsset(chain.Algorand),
		From:    from,
		To:      to,
		Amount:  big.NewInt(amount),
	}
}

func decode(t *testing.T, signed []byte) types.SignedTxn {
	t.Helper()

	var stx types.SignedTxn
	require.NoError(t, msgpack.Decode(signed, &stx))

	return stx
}

func TestAccountAddress(t *testing.T) {
	addr, err := algorand.AccountAddress(nil, seed(1))
	require.NoError(t, err)
	assert.Len(t, addr, 58)

	decoded, err := types.DecodeAddress(addr)
	require.NoError(t, err)
	pub := ed25519.NewKeyFromSeed(seed(1)).Public().(ed25519.PublicKey)
	assert.Equal(t, []byte(pub), decoded[:])
}

func TestPreloadFeesAndRounds(t *testing.T) {
	client, n, from, to := setup(t)

	params, err := client.Preload(context.Background(), intent(from, to, 1_000))
	require.NoError(t, err)

	data, ok := params.Data.(wallet.AlgorandSignData)
	require.True(t, ok)
	assert.Equal(t, uint64(100), data.FirstRound)
	assert.Equal(t, uint64(1100), data.LastRound)
	assert.Equal(t, "testnet-v1.0", data.GenesisID)
	assert.Equal(t, big.NewInt(1000), params.Fee.Amount)

	// congestion: 10 microalgos per byte
	n.params.Fee = 10
	fees, err := client.CalculateFees(context.Background(), intent(from, to, 1))
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, big.NewInt(2500), fees[0].Amount)
}

func TestPreloadReserve(t *testing.T) {
	client, n, from, to := setup(t)

	_, err := client.Preload(context.Background(), intent(from, to, 4_900_000))
	assert.ErrorIs(t, err, wallet.ErrInsufficientReserve)

	// opted in assets raise the minimum balance above the configured reserve
	n.account.MinBalance = 300_000
	in := intent(from, to, 0)
	in.Amount = nil
	in.UseMaxAmount = true

	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(4_700_000), params.Intent.Amount)

	in.Type = wallet.TransactionTypeSwap
	_, err = client.Preload(context.Background(), in)
	assert.ErrorIs(t, err, wallet.ErrUnsupportedTransfer)
}

func TestSignPayment(t *testing.T) {
	client, n, from, to := setup(t)

	in := intent(from, to, 1_000)
	in.Memo = "order-7"
	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	require.Len(t, signed, 1)

	stx := decode(t, signed[0])
	assert.Equal(t, types.PaymentTx, stx.Txn.Type)
	assert.Equal(t, types.MicroAlgos(1000), stx.Txn.Fee)
	assert.Equal(t, types.MicroAlgos(1000), stx.Txn.Amount)
	assert.Equal(t, to, stx.Txn.Receiver.String())
	assert.Equal(t, from, stx.Txn.Sender.String())
	assert.Equal(t, types.Round(100), stx.Txn.FirstValid)
	assert.Equal(t, []byte("order-7"), stx.Txn.Note)

	pub := ed25519.NewKeyFromSeed(seed(1)).Public().(ed25519.PublicKey)
	msg := append([]byte("TX"), msgpack.Encode(stx.Txn)...)
	assert.True(t, ed25519.Verify(pub, msg, stx.Sig[:]))

	txID, err := client.Send(context.Background(), signed[0])
	require.NoError(t, err)
	assert.Equal(t, "TXID", txID)
	assert.Len(t, n.submitted, 1)

	_, err = client.Sign(context.Background(), params, seed(2), wallet.FeePriorityNormal)
	var signErr *wallet.SignError
	require.ErrorAs(t, err, &signErr)

	params.Data = wallet.NearSignData{}
	_, err = client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	assert.ErrorIs(t, err, wallet.ErrWrongSignData)
}

func TestSignAssetTransferAndOptIn(t *testing.T) {
	client, _, from, to := setup(t)

	in := intent(from, to, 250)
	in.AssetID = wallet.AssetID{Chain: chain.Algorand, TokenID: "31566704"}
	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)

	stx := decode(t, signed[0])
	assert.Equal(t, types.AssetTransferTx, stx.Txn.Type)
	assert.Equal(t, types.AssetIndex(31566704), stx.Txn.XferAsset)
	assert.Equal(t, uint64(250), stx.Txn.AssetAmount)
	assert.Equal(t, to, stx.Txn.AssetReceiver.String())

	in.Type = wallet.TransactionTypeAssetActivation
	in.To = from
	in.Amount = nil
	params, err = client.Preload(context.Background(), in)
	require.NoError(t, err)

	signed, err = client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)

	stx = decode(t, signed[0])
	assert.Equal(t, types.AssetTransferTx, stx.Txn.Type)
	assert.Zero(t, stx.Txn.AssetAmount)
	assert.Equal(t, from, stx.Txn.AssetReceiver.String())

	in.AssetID.TokenID = "usdc"
	_, err = client.Preload(context.Background(), in)
	var preloadErr *wallet.PreloadError
	require.ErrorAs(t, err, &preloadErr)
}

func TestGetStatus(t *testing.T) {
	client, n, _, _ := setup(t)
	req := wallet.StatusRequest{Chain: chain.Algorand, Hash: "TXID"}

	status, err := client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	n.pending["TXID"] = &algorand.PendingTransaction{}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	confirmed := &algorand.PendingTransaction{ConfirmedRound: 120}
	confirmed.Txn.Txn.Fee = 1000
	n.pending["TXID"] = confirmed
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateConfirmed, status.State)
	assert.Equal(t, big.NewInt(1000), status.Fee)

	n.pending["TXID"] = &algorand.PendingTransaction{PoolError: "overspend"}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateFailed, status.State)

	n.statusErr = errors.New("reset")
	_, err = client.GetStatus(context.Background(), req)
	var statusErr *wallet.StatusError
	require.ErrorAs(t, err, &statusErr)
}

func TestAlgodNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/transactions/params":
			_, _ = w.Write([]byte(`{"consensus-version":"v40","fee":0,"genesis-hash":"AwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwMDAwM=","genesis-id":"testnet-v1.0","last-round":42,"min-fee":1000}`))
		case "/v2/transactions":
			assert.Equal(t, "application/x-binary", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"txId":"ABC"}`))
		case "/v2/transactions/pending/OK":
			_, _ = w.Write([]byte(`{"confirmed-round":43,"pool-error":"","txn":{"txn":{"fee":1000}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"txn not found"}`))
		}
	}))
	defer srv.Close()

	selector := node.NewSelector(map[chain.Chain][]string{chain.Algorand: {srv.URL}})
	algod := algorand.NewAlgodNode(node.NewREST(chain.Algorand, selector))
	ctx := context.Background()

	params, err := algod.Params(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), params.LastRound)
	assert.Equal(t, bytes.Repeat([]byte{3}, 32), params.GenesisHash)

	txID, err := algod.Submit(ctx, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "ABC", txID)

	pending, err := algod.Pending(ctx, "OK")
	require.NoError(t, err)
	assert.Equal(t, uint64(43), pending.ConfirmedRound)
	assert.Equal(t, uint64(1000), pending.Txn.Txn.Fee)

	pending, err = algod.Pending(ctx, "GONE")
	require.NoError(t, err)
	assert.Nil(t, pending)
}
