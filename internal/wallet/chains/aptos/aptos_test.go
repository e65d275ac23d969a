package aptos_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/chains/aptos"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

type fakeNode struct {
	sequence  uint64
	simulated [][]byte
	gasUsed   string
	success   bool
	txs       map[string]*aptos.Transaction
	statusErr error
	submitted [][]byte
}

func (f *fakeNode) Sequence(context.Context, string) (uint64, error) {
	return f.sequence, nil
}

func (f *fakeNode) Ledger(context.Context) (*aptos.LedgerInfo, error) {
	return &aptos.LedgerInfo{ChainID: 1, LedgerTimestamp: "1700000000000000"}, nil
}

func (f *fakeNode) GasPrice(context.Context) (*aptos.GasEstimate, error) {
	return &aptos.GasEstimate{DeprioritizedGasEstimate: 100, GasEstimate: 100, PrioritizedGasEstimate: 150}, nil
}

func (f *fakeNode) Simulate(_ context.Context, signed []byte) (*aptos.Transaction, error) {
	f.simulated = append(f.simulated, signed)
	return &aptos.Transaction{Success: f.success, GasUsed: f.gasUsed, VMStatus: "Executed successfully"}, nil
}

func (f *fakeNode) Submit(_ context.Context, signed []byte) (string, error) {
	f.submitted = append(f.submitted, signed)
	return "0xhash", nil
}

func (f *fakeNode) Transaction(_ context.Context, hash string) (*aptos.Transaction, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.txs[hash], nil
}

func seed(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func setup(t *testing.T) (*aptos.Client, *fakeNode, string) {
	t.Helper()

	from, err := aptos.AccountAddress(nil, seed(1))
	require.NoError(t, err)

	n := &fakeNode{sequence: 3, gasUsed: "10", success: true, txs: map[string]*aptos.Transaction{}}

	return aptos.New(&chain.Config{Chain: chain.Aptos, Family: chain.FamilyAptos}, n), n, from
}

func intent(from string, amount int64) wallet.TransferIntent {
	return wallet.TransferIntent{
		Type:    wallet.TransactionTypeTransfer,
		AssetID: wallet.NativeAsset(chain.Aptos),
		From:    from,
		To:      "0x2",
		Amount:  big.NewInt(amount),
	}
}

func TestAccountAddress(t *testing.T) {
	key := ed25519.NewKeyFromSeed(seed(1))
	sum := sha3.Sum256(append(append([]byte(nil), key.Public().(ed25519.PublicKey)...), 0x00))

	addr, err := aptos.AccountAddress(nil, seed(1))
	require.NoError(t, err)
	assert.Equal(t, "0x"+hex.EncodeToString(sum[:]), addr)
}

func TestPreloadNativeSimulates(t *testing.T) {
	client, n, from := setup(t)

	params, err := client.Preload(context.Background(), intent(from, 1000))
	require.NoError(t, err)
	require.Len(t, n.simulated, 1)
	// simulation carries the keyless authenticator
	assert.Equal(t, []byte{4, 4}, n.simulated[0][len(n.simulated[0])-2:])

	data, ok := params.Data.(wallet.AptosSignData)
	require.True(t, ok)
	assert.Equal(t, uint64(3), data.Sequence)
	assert.Equal(t, uint8(1), data.ChainID)
	assert.Equal(t, uint64(1_700_003_600), data.Expiration)

	for priority, price := range map[wallet.FeePriority]int64{
		wallet.FeePrioritySlow:   100,
		wallet.FeePriorityNormal: 150,
		wallet.FeePriorityFast:   300,
	} {
		fee, ok := data.FeeFor(priority)
		require.True(t, ok)
		assert.Equal(t, uint64(15), fee.GasLimit)
		assert.Equal(t, big.NewInt(price*15), fee.Amount)
	}
}

func TestPreloadTokenUsesFixedGas(t *testing.T) {
	client, n, from := setup(t)

	in := intent(from, 5)
	in.AssetID = wallet.AssetID{Chain: chain.Aptos, TokenID: "0xf22::asset::USDT"}

	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, n.simulated)
	assert.Equal(t, uint64(1500), params.Fee.GasLimit)

	n.success = false
	_, err = client.Preload(context.Background(), intent(from, 5))
	var preloadErr *wallet.PreloadError
	require.ErrorAs(t, err, &preloadErr)
}

func TestSignProducesVerifiableTransaction(t *testing.T) {
	client, n, from := setup(t)

	params, err := client.Preload(context.Background(), intent(from, 1000))
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, seed(1), wallet.FeePriorityFast)
	require.NoError(t, err)
	require.Len(t, signed, 1)

	tx := signed[0]
	// authenticator: variant, 32 byte key, 64 byte signature, each length prefixed
	authLen := 1 + 1 + 32 + 1 + 64
	raw, auth := tx[:len(tx)-authLen], tx[len(tx)-authLen:]
	assert.Equal(t, byte(0), auth[0])
	assert.Equal(t, byte(32), auth[1])
	assert.Equal(t, byte(64), auth[34])

	pub := ed25519.PublicKey(auth[2:34])
	salt := sha3.Sum256([]byte("APTOS::RawTransaction"))
	assert.True(t, ed25519.Verify(pub, append(salt[:], raw...), auth[35:]))

	tail := raw[len(raw)-25:]
	assert.Equal(t, uint64(15), binary.LittleEndian.Uint64(tail[0:8]))
	assert.Equal(t, uint64(300), binary.LittleEndian.Uint64(tail[8:16]))

	hash, err := client.Send(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "0xhash", hash)
	assert.Len(t, n.submitted, 1)

	_, err = client.Sign(context.Background(), params, seed(2), wallet.FeePriorityFast)
	var signErr *wallet.SignError
	require.ErrorAs(t, err, &signErr)
}

func TestGetStatus(t *testing.T) {
	client, n, _ := setup(t)
	req := wallet.StatusRequest{Chain: chain.Aptos, Hash: "0xabc"}

	status, err := client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	n.txs["0xabc"] = &aptos.Transaction{Type: "pending_transaction"}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	n.txs["0xabc"] = &aptos.Transaction{Type: "user_transaction", Success: true, GasUsed: "12", GasUnitPrice: "100"}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateConfirmed, status.State)
	assert.Equal(t, big.NewInt(1200), status.Fee)

	n.txs["0xabc"] = &aptos.Transaction{Type: "user_transaction", Success: false, VMStatus: "Move abort"}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateReverted, status.State)

	n.statusErr = errors.New("reset")
	_, err = client.GetStatus(context.Background(), req)
	var statusErr *wallet.StatusError
	require.ErrorAs(t, err, &statusErr)
}

func TestRESTNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/accounts/0x1":
			_, _ = w.Write([]byte(`{"sequence_number":"42","authentication_key":"0x1"}`))
		case "/v1/transactions/simulate":
			assert.Equal(t, "application/x.aptos.signed_transaction+bcs", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`[{"success":true,"gas_used":"9","vm_status":"Executed successfully"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_code":"transaction_not_found"}`))
		}
	}))
	defer srv.Close()

	selector := node.NewSelector(map[chain.Chain][]string{chain.Aptos: {srv.URL}})
	rest := aptos.NewRESTNode(node.NewREST(chain.Aptos, selector))
	ctx := context.Background()

	seq, err := rest.Sequence(ctx, "0x1")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), seq)

	seq, err = rest.Sequence(ctx, "0x99")
	require.NoError(t, err)
	assert.Zero(t, seq)

	sim, err := rest.Simulate(ctx, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "9", sim.GasUsed)

	tx, err := rest.Transaction(ctx, "0xdead")
	require.NoError(t, err)
	assert.Nil(t, tx)
}
