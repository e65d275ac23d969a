package solana_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	solanachain "github/chapool/wallet-txengine/internal/wallet/chains/solana"
)

const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

type fakeNode struct {
	blockhash solana.Hash
	fees      []uint64
	accounts  map[solana.PublicKey]bool
	statuses  map[solana.Signature]*rpc.SignatureStatusesResult
	statusErr error
	sent      [][]byte
}

func (f *fakeNode) LatestBlockhash(context.Context) (solana.Hash, error) {
	return f.blockhash, nil
}

func (f *fakeNode) PrioritizationFees(context.Context, []solana.PublicKey) ([]uint64, error) {
	return f.fees, nil
}

func (f *fakeNode) AccountExists(_ context.Context, account solana.PublicKey) (bool, error) {
	return f.accounts[account], nil
}

func (f *fakeNode) SendTransaction(_ context.Context, raw []byte) (solana.Signature, error) {
	f.sent = append(f.sent, raw)

	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return solana.Signature{}, err
	}

	return tx.Signatures[0], nil
}

func (f *fakeNode) SignatureStatus(_ context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}

	return f.statuses[sig], nil
}

func seed(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func setup(t *testing.T) (*solanachain.Client, *fakeNode, string, string) {
	t.Helper()

	cfg := &chain.Config{Chain: chain.Solana, Family: chain.FamilySolana}

	from, err := solanachain.AccountAddress(cfg, seed(1))
	require.NoError(t, err)
	to, err := solanachain.AccountAddress(cfg, seed(2))
	require.NoError(t, err)

	n := &fakeNode{
		blockhash: solana.Hash{1, 2, 3, 4, 5, 6, 7, 8},
		fees:      []uint64{0, 300, 100, 400, 200},
		accounts:  map[solana.PublicKey]bool{},
		statuses:  map[solana.Signature]*rpc.SignatureStatusesResult{},
	}

	return solanachain.New(cfg, n), n, from, to
}

func intent(from, to string, amount int64) wallet.TransferIntent {
	return wallet.TransferIntent{
		Type:    wallet.TransactionTypeTransfer,
		AssetID: wallet.NativeAsset(chain.Solana),
		From:    from,
		To:      to,
		Amount:  big.NewInt(amount),
	}
}

func TestAccountAddressAcceptsSeedAndExpandedKey(t *testing.T) {
	cfg := &chain.Config{Chain: chain.Solana}

	short, err := solanachain.AccountAddress(cfg, seed(7))
	require.NoError(t, err)

	long, err := solanachain.AccountAddress(cfg, append(seed(7), seed(9)...))
	require.NoError(t, err)
	assert.Equal(t, short, long)

	_, err = solanachain.AccountAddress(cfg, []byte{1, 2, 3})
	require.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestPreloadFeeTiers(t *testing.T) {
	client, _, from, to := setup(t)

	params, err := client.Preload(context.Background(), intent(from, to, 1_000_000))
	require.NoError(t, err)

	data, ok := params.Data.(wallet.SolanaSignData)
	require.True(t, ok)
	assert.Equal(t, solana.Hash{1, 2, 3, 4, 5, 6, 7, 8}.String(), data.RecentBlockhash)
	assert.False(t, data.CreateRecipientAccount)

	expected := map[wallet.FeePriority]int64{
		wallet.FeePrioritySlow:   100,
		wallet.FeePriorityNormal: 200,
		wallet.FeePriorityFast:   300,
	}
	for priority, price := range expected {
		fee, ok := data.FeeFor(priority)
		require.True(t, ok)
		assert.Equal(t, big.NewInt(price), fee.GasPrice)
		assert.Equal(t, uint64(200_000), fee.GasLimit)
		// price * 200000 / 1e6 micro-lamports on top of the 5000 lamport signature fee
		assert.Equal(t, big.NewInt(5000+price/5), fee.Amount)
	}
}

func TestPreloadWithoutPrioritizationSamples(t *testing.T) {
	client, n, from, to := setup(t)
	n.fees = nil

	fees, err := client.CalculateFees(context.Background(), intent(from, to, 1))
	require.NoError(t, err)
	require.Len(t, fees, 3)
	for _, fee := range fees {
		assert.Equal(t, big.NewInt(7000), fee.Amount)
	}
}

func TestSignNativeTransfer(t *testing.T) {
	client, n, from, to := setup(t)

	in := intent(from, to, 1_000_000)
	in.Memo = "invoice 42"
	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	require.Len(t, signed, 1)

	tx, err := solana.TransactionFromBytes(signed[0])
	require.NoError(t, err)
	require.NoError(t, tx.VerifySignatures())
	assert.Equal(t, n.blockhash, tx.Message.RecentBlockhash)
	require.Len(t, tx.Message.Instructions, 4)
	assert.Equal(t, uint64(1_000_000), transferLamports(t, tx))

	again, err := client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, signed, again)

	hash, err := client.Send(context.Background(), signed[0])
	require.NoError(t, err)
	assert.Equal(t, tx.Signatures[0].String(), hash)
}

func TestSignMaxAmountDeductsFee(t *testing.T) {
	client, _, from, to := setup(t)

	in := intent(from, to, 1_000_000)
	in.UseMaxAmount = true
	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, seed(1), wallet.FeePriorityFast)
	require.NoError(t, err)

	tx, err := solana.TransactionFromBytes(signed[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000-5060), transferLamports(t, tx))
}

// transferLamports decodes the system transfer, the third instruction after the compute budget.
func transferLamports(t *testing.T, tx *solana.Transaction) uint64 {
	t.Helper()

	data := tx.Message.Instructions[2].Data
	require.Len(t, data, 12)
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[:4]))

	return binary.LittleEndian.Uint64(data[4:])
}

func TestSignTokenTransferCreatesRecipientAccount(t *testing.T) {
	client, n, from, to := setup(t)

	in := intent(from, to, 5_000)
	in.AssetID = wallet.AssetID{Chain: chain.Solana, TokenID: usdcMint}

	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)

	data := params.Data.(wallet.SolanaSignData) //nolint:forcetypeassert
	assert.True(t, data.CreateRecipientAccount)
	assert.NotEmpty(t, data.SenderTokenAccount)

	signed, err := client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	tx, err := solana.TransactionFromBytes(signed[0])
	require.NoError(t, err)
	assert.Len(t, tx.Message.Instructions, 4)

	recipient, err := solana.PublicKeyFromBase58(data.RecipientTokenAccount)
	require.NoError(t, err)
	n.accounts[recipient] = true

	params, err = client.Preload(context.Background(), in)
	require.NoError(t, err)
	signed, err = client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.NoError(t, err)
	tx, err = solana.TransactionFromBytes(signed[0])
	require.NoError(t, err)
	assert.Len(t, tx.Message.Instructions, 3)
}

func TestSignRejects(t *testing.T) {
	client, _, from, to := setup(t)

	params, err := client.Preload(context.Background(), intent(from, to, 10))
	require.NoError(t, err)

	var signErr *wallet.SignError
	_, err = client.Sign(context.Background(), params, seed(2), wallet.FeePriorityNormal)
	require.ErrorAs(t, err, &signErr)

	params.Data = wallet.CosmosSignData{}
	_, err = client.Sign(context.Background(), params, seed(1), wallet.FeePriorityNormal)
	require.ErrorIs(t, err, wallet.ErrWrongSignData)
}

func TestGetStatus(t *testing.T) {
	client, n, _, _ := setup(t)

	sig := solana.Signature{9, 9, 9}
	req := wallet.StatusRequest{Chain: chain.Solana, Hash: sig.String()}

	status, err := client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	n.statuses[sig] = &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusProcessed}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	n.statuses[sig] = &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusFinalized}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateConfirmed, status.State)

	n.statuses[sig] = &rpc.SignatureStatusesResult{
		ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
		Err:                map[string]any{"InstructionError": []any{2, "Custom"}},
	}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateReverted, status.State)

	n.statusErr = errors.New("timeout")
	_, err = client.GetStatus(context.Background(), req)
	var statusErr *wallet.StatusError
	require.ErrorAs(t, err, &statusErr)
}
