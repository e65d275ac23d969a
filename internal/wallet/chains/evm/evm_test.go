package evm_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/chains/evm"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

type fakeNode struct {
	mu        sync.Mutex
	nonce     uint64
	estimate  uint64
	history   *ethereum.FeeHistory
	receipts  map[common.Hash]*types.Receipt
	statusErr error
	sent      []*types.Transaction
}

func (f *fakeNode) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeNode) FeeHistory(context.Context, uint64, []float64) (*ethereum.FeeHistory, error) {
	return f.history, nil
}

func (f *fakeNode) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.estimate, nil
}

func (f *fakeNode) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeNode) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	receipt, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func newClient(t *testing.T) (*evm.Client, *fakeNode, []byte, string) {
	t.Helper()

	n := &fakeNode{
		nonce:    5,
		estimate: 50_000,
		history: &ethereum.FeeHistory{
			BaseFee: []*big.Int{gwei(9), gwei(10)},
			Reward: [][]*big.Int{
				{gwei(1), gwei(2), gwei(3)},
				{gwei(1), gwei(2), gwei(5)},
			},
		},
		receipts: map[common.Hash]*types.Receipt{},
	}

	cfg := &chain.Config{Chain: chain.Ethereum, Family: chain.FamilyEVM, EVMChainID: 1}
	priv := common.FromHex(testKey)
	from, err := evm.AccountAddress(cfg, priv)
	require.NoError(t, err)

	return evm.New(cfg, n), n, priv, from
}

func transferIntent(from string) wallet.TransferIntent {
	return wallet.TransferIntent{
		Type:    wallet.TransactionTypeTransfer,
		AssetID: wallet.NativeAsset(chain.Ethereum),
		From:    from,
		To:      "0x3535353535353535353535353535353535353535",
		Amount:  big.NewInt(10),
	}
}

func TestPreloadNativeTransfer(t *testing.T) {
	client, _, _, from := newClient(t)

	params, err := client.Preload(context.Background(), transferIntent(from))
	require.NoError(t, err)

	data, ok := params.Data.(wallet.EVMSignData)
	require.True(t, ok)
	assert.Equal(t, uint64(5), data.Nonce)
	assert.Equal(t, int64(1), data.ChainID)

	normal, ok := data.FeeFor(wallet.FeePriorityNormal)
	require.True(t, ok)
	assert.Equal(t, uint64(21000), normal.GasLimit)
	assert.Equal(t, gwei(2), normal.MinerFee)
	assert.Equal(t, gwei(22), normal.GasPrice) // 2 * 10 + 2
	assert.Equal(t, new(big.Int).Mul(gwei(22), big.NewInt(21000)), normal.Amount)

	fast, ok := data.FeeFor(wallet.FeePriorityFast)
	require.True(t, ok)
	assert.Equal(t, gwei(4), fast.MinerFee)

	assert.Equal(t, normal, params.Fee)
}

func TestPreloadTokenTransferBuffersEstimate(t *testing.T) {
	client, _, _, from := newClient(t)

	intent := transferIntent(from)
	intent.AssetID = wallet.AssetID{Chain: chain.Ethereum, TokenID: "0xdAC17F958D2ee523a2206206994597C13D831ec7"}

	fees, err := client.CalculateFees(context.Background(), intent)
	require.NoError(t, err)
	require.Len(t, fees, 3)
	assert.Equal(t, uint64(75_000), fees[0].GasLimit)
}

func TestSignIsDeterministic(t *testing.T) {
	client, _, priv, from := newClient(t)
	ctx := context.Background()

	params, err := client.Preload(ctx, transferIntent(from))
	require.NoError(t, err)

	first, err := client.Sign(ctx, params, priv, wallet.FeePriorityNormal)
	require.NoError(t, err)
	second, err := client.Sign(ctx, params, priv, wallet.FeePriorityNormal)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, hexutil.Encode(first[0]), hexutil.Encode(second[0]))

	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(first[0]))
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, big.NewInt(10), tx.Value())
	assert.Equal(t, uint64(21000), tx.Gas())

	sender, err := types.Sender(types.NewLondonSigner(big.NewInt(1)), tx)
	require.NoError(t, err)
	assert.Equal(t, from, sender.Hex())
}

func TestSignTokenTransferEncodesCalldata(t *testing.T) {
	client, _, priv, from := newClient(t)
	ctx := context.Background()

	intent := transferIntent(from)
	intent.AssetID = wallet.AssetID{Chain: chain.Ethereum, TokenID: "0xdAC17F958D2ee523a2206206994597C13D831ec7"}

	params, err := client.Preload(ctx, intent)
	require.NoError(t, err)

	signed, err := client.Sign(ctx, params, priv, wallet.FeePrioritySlow)
	require.NoError(t, err)

	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(signed[0]))
	assert.Equal(t, common.HexToAddress(intent.AssetID.TokenID), *tx.To())
	assert.Equal(t, 0, tx.Value().Sign())
	assert.Equal(t, "a9059cbb", common.Bytes2Hex(tx.Data()[:4]))
	assert.Equal(t, big.NewInt(10), new(big.Int).SetBytes(tx.Data()[36:68]))
}

func TestSignMaxAmountDeductsFee(t *testing.T) {
	client, _, priv, from := newClient(t)
	ctx := context.Background()

	intent := transferIntent(from)
	intent.Amount = gwei(1_000_000)
	intent.UseMaxAmount = true

	params, err := client.Preload(ctx, intent)
	require.NoError(t, err)

	signed, err := client.Sign(ctx, params, priv, wallet.FeePriorityNormal)
	require.NoError(t, err)

	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(signed[0]))
	fee := params.FeeFor(wallet.FeePriorityNormal).Amount
	assert.Equal(t, new(big.Int).Sub(intent.Amount, fee), tx.Value())
}

func TestSignRejectsWrongInputs(t *testing.T) {
	client, _, priv, from := newClient(t)
	ctx := context.Background()

	params := &wallet.SignerParams{Intent: transferIntent(from), Data: wallet.SolanaSignData{}}
	_, err := client.Sign(ctx, params, priv, wallet.FeePriorityNormal)

	var signErr *wallet.SignError
	require.ErrorAs(t, err, &signErr)
	require.ErrorIs(t, err, wallet.ErrWrongSignData)

	params, err = client.Preload(ctx, transferIntent(from))
	require.NoError(t, err)
	other := crypto.Keccak256([]byte("other key"))
	_, err = client.Sign(ctx, params, other, wallet.FeePriorityNormal)
	require.ErrorAs(t, err, &signErr)
}

func TestBroadcastReturnsHash(t *testing.T) {
	client, n, priv, from := newClient(t)
	ctx := context.Background()

	params, err := client.Preload(ctx, transferIntent(from))
	require.NoError(t, err)
	signed, err := client.Sign(ctx, params, priv, wallet.FeePriorityNormal)
	require.NoError(t, err)

	hash, err := client.Send(ctx, signed[0])
	require.NoError(t, err)
	require.Len(t, n.sent, 1)
	assert.Equal(t, n.sent[0].Hash().Hex(), hash)

	_, err = client.Send(ctx, []byte{0x01, 0x02})
	var broadcastErr *wallet.BroadcastError
	require.ErrorAs(t, err, &broadcastErr)
}

func TestStatus(t *testing.T) {
	client, n, _, _ := newClient(t)
	ctx := context.Background()

	pending := common.HexToHash("0x01")
	confirmed := common.HexToHash("0x02")
	reverted := common.HexToHash("0x03")

	n.receipts[confirmed] = &types.Receipt{Status: types.ReceiptStatusSuccessful, GasUsed: 21000, EffectiveGasPrice: gwei(20)}
	n.receipts[reverted] = &types.Receipt{Status: types.ReceiptStatusFailed, GasUsed: 30000, EffectiveGasPrice: gwei(20)}

	res, err := client.GetStatus(ctx, wallet.StatusRequest{Chain: chain.Ethereum, Hash: pending.Hex()})
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, res.State)

	for range 2 {
		res, err = client.GetStatus(ctx, wallet.StatusRequest{Chain: chain.Ethereum, Hash: confirmed.Hex()})
		require.NoError(t, err)
		assert.Equal(t, wallet.TransactionStateConfirmed, res.State)
		assert.Equal(t, new(big.Int).Mul(big.NewInt(21000), gwei(20)), res.Fee)
		assert.Nil(t, res.HashChange)
	}

	res, err = client.GetStatus(ctx, wallet.StatusRequest{Chain: chain.Ethereum, Hash: reverted.Hex()})
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateReverted, res.State)

	n.statusErr = errors.New("connection refused")
	_, err = client.GetStatus(ctx, wallet.StatusRequest{Chain: chain.Ethereum, Hash: confirmed.Hex()})
	var statusErr *wallet.StatusError
	require.ErrorAs(t, err, &statusErr)
}
