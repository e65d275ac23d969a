package transfer_test

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/wallet-txengine/internal/metrics"
	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/registry"
	"github/chapool/wallet-txengine/internal/wallet/store"
	"github/chapool/wallet-txengine/internal/wallet/transfer"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

// fakeXrp signs by echoing the key and the amount and hashes payloads by hex encoding them.
type fakeXrp struct {
	mu      sync.Mutex
	sent    int
	sendErr error
}

func (f *fakeXrp) Preload(_ context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	data := wallet.XrpSignData{
		FeeSet:      wallet.SingleFee(wallet.NativeAsset(chain.Xrp), big.NewInt(12)),
		Sequence:    7,
		BlockNumber: 100,
	}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: data.Default()}, nil
}

func (f *fakeXrp) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	params, err := f.Preload(ctx, intent)
	if err != nil {
		return nil, err
	}

	return []wallet.Fee{params.Fee}, nil
}

func (f *fakeXrp) Sign(_ context.Context, params *wallet.SignerParams, key []byte, priority wallet.FeePriority) ([][]byte, error) {
	fee := params.FeeFor(priority)
	payload := append([]byte{}, key...)
	payload = append(payload, params.FinalAmount(fee).Bytes()...)

	return [][]byte{payload}, nil
}

func (f *fakeXrp) Send(_ context.Context, signed []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return "", wallet.NewBroadcastError(chain.Xrp, f.sendErr, "submit")
	}
	f.sent++

	return hex.EncodeToString(signed), nil
}

type fakeVault struct {
	handed [][]byte
}

func (v *fakeVault) DerivePrivateKey(_ context.Context, walletID string, _ chain.Chain) ([]byte, error) {
	if walletID != "main" {
		return nil, errors.Wrap(wallet.ErrNotFound, walletID)
	}

	key := []byte{0xaa, 0xbb}
	v.handed = append(v.handed, key)

	return key, nil
}

func (v *fakeVault) DerivePublicAccount(context.Context, string, chain.Chain) (string, error) {
	return "rSender", nil
}

type fixture struct {
	chain   *fakeXrp
	vault   *fakeVault
	store   store.Store
	metrics *metrics.BroadcastMetrics
	service transfer.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		chain:   &fakeXrp{},
		vault:   &fakeVault{},
		store:   store.NewMemory(),
		metrics: metrics.NewBroadcastMetrics(prometheus.NewRegistry()),
	}

	reg, err := registry.NewRegistry(map[chain.Chain]registry.ChainClients{
		chain.Xrp: registry.FromClient(f.chain),
	})
	require.NoError(t, err)

	f.service = transfer.NewService(reg, f.vault, f.store,
		transfer.WithClock(func() time.Time { return now }),
		transfer.WithMetrics(f.metrics),
	)

	return f
}

func intent() wallet.TransferIntent {
	return wallet.TransferIntent{
		WalletID: "main",
		Type:     wallet.TransactionTypeTransfer,
		AssetID:  wallet.NativeAsset(chain.Xrp),
		From:     "rSender",
		To:       "rDest",
		Amount:   big.NewInt(1000),
		Memo:     "invoice 7",
	}
}

func TestSendStoresPendingRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.service.Send(ctx, intent(), wallet.FeePriorityNormal)
	require.NoError(t, err)

	hash := hex.EncodeToString(append([]byte{0xaa, 0xbb}, big.NewInt(1000).Bytes()...))
	assert.Equal(t, "xrp_"+hash, tx.ID)
	assert.Equal(t, hash, tx.Hash)
	assert.Equal(t, wallet.TransactionStatePending, tx.State)
	assert.Equal(t, "12", tx.Fee)
	assert.Equal(t, "1000", tx.Value)
	assert.Equal(t, "invoice 7", tx.Memo)
	assert.Equal(t, "100", tx.BlockNumber)
	assert.Equal(t, wallet.TransactionDirectionOutgoing, tx.Direction)
	assert.Equal(t, wallet.NativeAsset(chain.Xrp), tx.FeeAssetID)
	assert.Equal(t, now.UnixMilli(), tx.CreatedAt)

	stored, err := f.store.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx, stored)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Total.WithLabelValues("xrp", "ok")), 0)
}

func TestKeyIsZeroedAfterSigning(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Send(context.Background(), intent(), wallet.FeePriorityNormal)
	require.NoError(t, err)

	require.Len(t, f.vault.handed, 1)
	assert.Equal(t, []byte{0, 0}, f.vault.handed[0])
}

func TestSwapClearsMemoAndKeepsMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := intent()
	in.Type = wallet.TransactionTypeSwap
	in.Swap = &wallet.SwapMetadata{
		FromAsset:  wallet.NativeAsset(chain.Xrp),
		ToAsset:    wallet.AssetID{Chain: chain.Xrp, TokenID: "USD.rIssuer"},
		FromAmount: "1000",
		ToAmount:   "550",
	}

	tx, err := f.service.Send(ctx, in, wallet.FeePriorityNormal)
	require.NoError(t, err)

	assert.Empty(t, tx.Memo)
	assert.NotEmpty(t, tx.Metadata)

	stored, err := f.store.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Swap)
	assert.Equal(t, "550", stored.Swap.ToAmount)
}

func TestSelfTransferDirection(t *testing.T) {
	f := newFixture(t)

	in := intent()
	in.To = in.From

	tx, err := f.service.Send(context.Background(), in, wallet.FeePriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionDirectionSelfTransfer, tx.Direction)
}

func TestMaxAmountDeductsFee(t *testing.T) {
	f := newFixture(t)

	in := intent()
	in.UseMaxAmount = true

	tx, err := f.service.Send(context.Background(), in, wallet.FeePriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, "988", tx.Value)
}

func TestResubmitReturnsStoredRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	params, err := f.service.Prepare(ctx, intent())
	require.NoError(t, err)

	first, err := f.service.Submit(ctx, params, wallet.FeePriorityNormal)
	require.NoError(t, err)

	second, err := f.service.Submit(ctx, params, wallet.FeePriorityNormal)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.chain.sent)

	all, err := f.store.Query(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBroadcastErrorStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.chain.sendErr = errors.New("tefPAST_SEQ")

	_, err := f.service.Send(ctx, intent(), wallet.FeePriorityNormal)

	var broadcastErr *wallet.BroadcastError
	require.ErrorAs(t, err, &broadcastErr)
	assert.Equal(t, chain.Xrp, broadcastErr.Chain)

	all, err := f.store.Query(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Total.WithLabelValues("xrp", "error")), 0)
}

func TestRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := intent()
	in.AssetID = wallet.NativeAsset(chain.Polkadot)
	_, err := f.service.Send(ctx, in, wallet.FeePriorityNormal)
	require.ErrorIs(t, err, wallet.ErrUnsupportedChain)

	in = intent()
	in.To = ""
	_, err = f.service.Send(ctx, in, wallet.FeePriorityNormal)
	require.ErrorIs(t, err, transfer.ErrInvalidIntent)

	in = intent()
	in.Type = wallet.TransactionTypeSwap
	_, err = f.service.Quote(ctx, in)
	require.ErrorIs(t, err, transfer.ErrInvalidIntent)

	in = intent()
	in.WalletID = "other"
	_, err = f.service.Send(ctx, in, wallet.FeePriorityNormal)
	var signErr *wallet.SignError
	require.ErrorAs(t, err, &signErr)
	require.ErrorIs(t, err, wallet.ErrNotFound)
}

func TestSubmitValidatesParams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	params, err := f.service.Prepare(ctx, intent())
	require.NoError(t, err)

	// a swap without metadata is refused before anything is signed or broadcast
	params.Intent.Type = wallet.TransactionTypeSwap
	_, err = f.service.Submit(ctx, params, wallet.FeePriorityNormal)
	require.ErrorIs(t, err, transfer.ErrInvalidIntent)
	assert.Empty(t, f.vault.handed)
	assert.Equal(t, 0, f.chain.sent)

	_, err = f.service.Submit(ctx, nil, wallet.FeePriorityNormal)
	require.ErrorIs(t, err, transfer.ErrInvalidIntent)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)

	fees, err := f.service.Quote(context.Background(), intent())
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, "12", fees[0].Amount.String())
	assert.Equal(t, wallet.FeePriorityNormal, fees[0].Priority)
}

func TestAmounts(t *testing.T) {
	v, err := transfer.ParseAmount("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, "1500000", v.String())

	v, err = transfer.ParseAmount("0.000000000000000001", 18)
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())

	_, err = transfer.ParseAmount("1.0000001", 6)
	require.ErrorIs(t, err, transfer.ErrInvalidIntent)

	_, err = transfer.ParseAmount("-1", 6)
	require.ErrorIs(t, err, transfer.ErrInvalidIntent)

	_, err = transfer.ParseAmount("abc", 6)
	require.ErrorIs(t, err, transfer.ErrInvalidIntent)

	assert.Equal(t, "1.5", transfer.FormatAmount("1500000", 6))
	assert.Equal(t, "0", transfer.FormatAmount("", 6))
	assert.Equal(t, "0.000012", transfer.FormatAmount("12", 6))
}
