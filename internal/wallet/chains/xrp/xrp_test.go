package xrp_test

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/chains/xrp"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

const (
	destination = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	usdToken    = "USD.rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
)

type fakeNode struct {
	account   *xrp.AccountInfo
	fee       xrp.FeeInfo
	submit    xrp.SubmitResult
	txs       map[string]*xrp.TxResult
	statusErr error
	submitted []string
}

func (f *fakeNode) AccountInfo(context.Context, string) (*xrp.AccountInfo, error) {
	return f.account, nil
}

func (f *fakeNode) Fee(context.Context) (*xrp.FeeInfo, error) {
	fee := f.fee
	return &fee, nil
}

func (f *fakeNode) Submit(_ context.Context, blob string) (*xrp.SubmitResult, error) {
	f.submitted = append(f.submitted, blob)
	resp := f.submit
	return &resp, nil
}

func (f *fakeNode) Transaction(_ context.Context, hash string) (*xrp.TxResult, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}

	return f.txs[hash], nil
}

func privKey(n byte) []byte {
	key := make([]byte, 32)
	key[31] = n
	return key
}

func setup(t *testing.T) (*xrp.Client, *fakeNode, string) {
	t.Helper()

	cfg := &chain.Config{Chain: chain.Xrp, Family: chain.FamilyXrp, Reserve: "1000000"}
	from, err := xrp.AccountAddress(cfg, privKey(1))
	require.NoError(t, err)

	n := &fakeNode{
		account: &xrp.AccountInfo{Account: from, Balance: "20000000", Sequence: 42},
		txs:     map[string]*xrp.TxResult{},
	}
	n.fee.Drops.BaseFee = "10"
	n.fee.Drops.MinimumFee = "10"
	n.fee.Drops.OpenLedgerFee = "15"
	n.fee.Drops.MedianFee = "12"
	n.fee.LedgerCurrentIndex = 1000

	return xrp.New(cfg, n), n, from
}

func intent(from string, amount int64) wallet.TransferIntent {
	return wallet.TransferIntent{
		Type:    wallet.TransactionTypeTransfer,
		AssetID: wallet.NativeAsset(chain.Xrp),
		From:    from,
		To:      destination,
		Amount:  big.NewInt(amount),
		Memo:    "12345",
	}
}

func TestPreloadFeesAndLedger(t *testing.T) {
	client, _, from := setup(t)

	params, err := client.Preload(context.Background(), intent(from, 1_000_000))
	require.NoError(t, err)

	data, ok := params.Data.(wallet.XrpSignData)
	require.True(t, ok)
	assert.Equal(t, uint32(42), data.Sequence)
	assert.Equal(t, uint32(1000), data.BlockNumber)

	require.Len(t, data.FeeSet, 1)
	assert.Equal(t, wallet.FeePriorityNormal, data.FeeSet[0].Priority)
	assert.Equal(t, "12", data.FeeSet[0].Amount.String())
	assert.Equal(t, "12", params.Fee.Amount.String())
}

func TestFeeIsMedianWithBaseFloor(t *testing.T) {
	client, n, from := setup(t)
	ctx := context.Background()

	n.fee.Drops.MedianFee = "5000"
	fees, err := client.CalculateFees(ctx, intent(from, 1))
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, "5000", fees[0].Amount.String())

	n.fee.Drops.MedianFee = "5"
	fees, err = client.CalculateFees(ctx, intent(from, 1))
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, "10", fees[0].Amount.String())

	// every priority signs with the single quote
	params, err := client.Preload(ctx, intent(from, 1))
	require.NoError(t, err)
	assert.Equal(t, params.Fee, params.FeeFor(wallet.FeePriorityFast))
}

func TestPreloadReserve(t *testing.T) {
	client, n, from := setup(t)

	_, err := client.Preload(context.Background(), intent(from, 18_999_988))
	require.NoError(t, err)

	_, err = client.Preload(context.Background(), intent(from, 18_999_989))
	require.ErrorIs(t, err, wallet.ErrInsufficientReserve)

	in := intent(from, 20_000_000)
	in.UseMaxAmount = true
	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "19000000", params.Intent.Amount.String())
	assert.Equal(t, "18999988", params.FinalAmount(params.Fee).String())

	n.account = nil
	_, err = client.Preload(context.Background(), intent(from, 1))
	require.ErrorIs(t, err, wallet.ErrNotFound)
}

// verify checks the TxnSignature field against the signing payload, which is the blob
// without that field.
func verify(t *testing.T, blob []byte) {
	t.Helper()

	pub := secp256k1.PrivKeyFromBytes(privKey(1)).PubKey()
	pubField := append([]byte{0x73, 0x21}, pub.SerializeCompressed()...)

	i := bytes.Index(blob, pubField)
	require.GreaterOrEqual(t, i, 0)
	start := i + len(pubField)
	require.Equal(t, byte(0x74), blob[start])
	sigLen := int(blob[start+1])
	der := blob[start+2 : start+2+sigLen]

	payload := append(append([]byte{'S', 'T', 'X', 0}, blob[:start]...), blob[start+2+sigLen:]...)
	sum := sha512.Sum512(payload)

	sig, err := ecdsa.ParseDERSignature(der)
	require.NoError(t, err)
	assert.True(t, sig.Verify(sum[:32], pub))
}

func TestSignPayment(t *testing.T) {
	client, _, from := setup(t)

	params, err := client.Preload(context.Background(), intent(from, 1_000_000))
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, privKey(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	require.Len(t, signed, 1)
	blob := signed[0]

	// TransactionType, Flags, Sequence, DestinationTag, LastLedgerSequence, Amount, Fee.
	header := []byte{
		0x12, 0x00, 0x00,
		0x22, 0x80, 0x00, 0x00, 0x00,
		0x24, 0x00, 0x00, 0x00, 0x2a,
		0x2e, 0x00, 0x00, 0x30, 0x39,
		0x20, 0x1b, 0x00, 0x00, 0x03, 0xf4,
		0x61, 0x40, 0x00, 0x00, 0x00, 0x00, 0x0f, 0x42, 0x40,
		0x68, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0c,
	}
	assert.Equal(t, header, blob[:len(header)])
	verify(t, blob)

	again, err := client.Sign(context.Background(), params, privKey(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, blob, again[0])
}

func TestSignTokenAndActivation(t *testing.T) {
	client, _, from := setup(t)

	in := intent(from, 2_500_000)
	in.AssetID = wallet.AssetID{Chain: chain.Xrp, TokenID: usdToken}
	in.Memo = "not a tag"
	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, privKey(1), wallet.FeePriorityFast)
	require.NoError(t, err)
	// no DestinationTag: LastLedgerSequence follows Sequence, then an issued Amount.
	header := []byte{
		0x12, 0x00, 0x00,
		0x22, 0x80, 0x00, 0x00, 0x00,
		0x24, 0x00, 0x00, 0x00, 0x2a,
		0x20, 0x1b, 0x00, 0x00, 0x03, 0xf4,
		0x61,
	}
	require.Equal(t, header, signed[0][:len(header)])
	assert.Equal(t, byte(0xd4), signed[0][len(header)]&0xfc)
	verify(t, signed[0])

	in.Type = wallet.TransactionTypeAssetActivation
	params, err = client.Preload(context.Background(), in)
	require.NoError(t, err)
	signed, err = client.Sign(context.Background(), params, privKey(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(signed[0], []byte{0x12, 0x00, 0x14}))
	verify(t, signed[0])

	in.AssetID.TokenID = "bogus"
	params, err = client.Preload(context.Background(), in)
	require.NoError(t, err)
	_, err = client.Sign(context.Background(), params, privKey(1), wallet.FeePriorityNormal)
	require.ErrorIs(t, err, xrp.ErrInvalidTokenID)
}

func TestSignRejections(t *testing.T) {
	client, _, from := setup(t)

	params, err := client.Preload(context.Background(), intent(from, 1000))
	require.NoError(t, err)

	var signErr *wallet.SignError
	_, err = client.Sign(context.Background(), params, privKey(2), wallet.FeePriorityNormal)
	require.ErrorAs(t, err, &signErr)

	_, err = client.Sign(context.Background(), params, nil, wallet.FeePriorityNormal)
	require.ErrorIs(t, err, wallet.ErrInvalidKey)

	bad := *params
	bad.Intent.To = "not-an-address"
	_, err = client.Sign(context.Background(), &bad, privKey(1), wallet.FeePriorityNormal)
	require.ErrorIs(t, err, xrp.ErrInvalidAddress)
}

func TestSend(t *testing.T) {
	client, n, _ := setup(t)

	n.submit.EngineResult = "tesSUCCESS"
	n.submit.TxJSON.Hash = "ABC"
	hash, err := client.Send(context.Background(), []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, "ABC", hash)
	assert.Equal(t, []string{"DEAD"}, n.submitted)

	n.submit.EngineResult = "terQUEUED"
	n.submit.TxJSON.Hash = ""
	hash, err = client.Send(context.Background(), []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, xrp.TxHash([]byte{0xde, 0xad}), hash)
	assert.Len(t, hash, 64)

	n.submit.EngineResult = "tefPAST_SEQ"
	n.submit.EngineResultMessage = "This sequence number has already passed."
	_, err = client.Send(context.Background(), []byte{1})
	var broadcastErr *wallet.BroadcastError
	require.ErrorAs(t, err, &broadcastErr)
	assert.Contains(t, err.Error(), "tefPAST_SEQ")
}

func TestGetStatus(t *testing.T) {
	client, n, _ := setup(t)
	req := wallet.StatusRequest{Chain: chain.Xrp, Hash: "H"}

	status, err := client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	n.txs["H"] = &xrp.TxResult{Hash: "H", Fee: "12"}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	n.txs["H"].Validated = true
	n.txs["H"].Meta.TransactionResult = "tesSUCCESS"
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateConfirmed, status.State)
	assert.Equal(t, "12", status.Fee.String())

	n.txs["H"].Meta.TransactionResult = "tecUNFUNDED_PAYMENT"
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateReverted, status.State)

	n.statusErr = errors.New("down")
	_, err = client.GetStatus(context.Background(), req)
	var statusErr *wallet.StatusError
	require.ErrorAs(t, err, &statusErr)
}

func TestRPCNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string           `json:"method"`
			Params []map[string]any `json:"params"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.Method == "account_info" && req.Params[0]["account"] == "rKnown":
			_, _ = w.Write([]byte(`{"result":{"account_data":{"Account":"rKnown","Balance":"25000000","Sequence":7},"status":"success"}}`))
		case req.Method == "account_info":
			_, _ = w.Write([]byte(`{"result":{"error":"actNotFound","error_message":"Account not found.","status":"error"}}`))
		case req.Method == "fee":
			_, _ = w.Write([]byte(`{"result":{"drops":{"base_fee":"10","median_fee":"5000","minimum_fee":"10","open_ledger_fee":"10"},"ledger_current_index":90,"status":"success"}}`))
		case req.Method == "submit":
			assert.Equal(t, "AB", req.Params[0]["tx_blob"])
			_, _ = w.Write([]byte(`{"result":{"engine_result":"tesSUCCESS","tx_json":{"hash":"H1"},"status":"success"}}`))
		case req.Method == "tx":
			_, _ = w.Write([]byte(`{"result":{"error":"txnNotFound","status":"error"}}`))
		default:
			_, _ = w.Write([]byte(`{"result":{"error":"unknownCmd","status":"error"}}`))
		}
	}))
	defer srv.Close()

	selector := node.NewSelector(map[chain.Chain][]string{chain.Xrp: {srv.URL}})
	rpc := xrp.NewRPCNode(node.NewREST(chain.Xrp, selector))
	ctx := context.Background()

	account, err := rpc.AccountInfo(ctx, "rKnown")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), account.Sequence)

	account, err = rpc.AccountInfo(ctx, "rMissing")
	require.NoError(t, err)
	assert.Nil(t, account)

	fee, err := rpc.Fee(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(90), fee.LedgerCurrentIndex)
	assert.Equal(t, "5000", fee.Drops.MedianFee)

	submitted, err := rpc.Submit(ctx, "AB")
	require.NoError(t, err)
	assert.Equal(t, "H1", submitted.TxJSON.Hash)

	tx, err := rpc.Transaction(ctx, "H1")
	require.NoError(t, err)
	assert.Nil(t, tx)
}
