package polkadot_test

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/chains/polkadot"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

const (
	genesisHash = "0x91b171bb158e2d3848fa23a9f1c25182fb8e20313b2c1eb49219da7a70ce90c3"
	recipient   = "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"
)

var blockHash = "0x" + hex.EncodeToString(repeat(0x11, 32))

type fakeNode struct {
	material  polkadot.Material
	nonce     uint64
	fee       string
	drafts    []string
	submitted []string
	head      uint64
	blocks    map[uint64]*polkadot.Block
	blockErr  error
}

func (f *fakeNode) Material(context.Context) (*polkadot.Material, error) {
	m := f.material
	return &m, nil
}

func (f *fakeNode) Nonce(context.Context, string) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeNode) EstimateFee(_ context.Context, tx string) (string, error) {
	f.drafts = append(f.drafts, tx)
	return f.fee, nil
}

func (f *fakeNode) Submit(_ context.Context, tx string) (string, error) {
	f.submitted = append(f.submitted, tx)
	return "", nil
}

func (f *fakeNode) HeadNumber(context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeNode) Block(_ context.Context, number uint64) (*polkadot.Block, error) {
	if f.blockErr != nil {
		return nil, f.blockErr
	}
	if b, ok := f.blocks[number]; ok {
		return b, nil
	}

	return &polkadot.Block{}, nil
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func setup(t *testing.T) (*polkadot.Client, *fakeNode, string) {
	t.Helper()

	cfg := &chain.Config{Chain: chain.Polkadot, Family: chain.FamilyPolkadot}
	from, err := polkadot.AccountAddress(cfg, repeat(1, 32))
	require.NoError(t, err)

	n := &fakeNode{nonce: 5, fee: "158000000", blocks: map[uint64]*polkadot.Block{}}
	n.material.At.Hash = blockHash
	n.material.At.Height = "1000"
	n.material.GenesisHash = genesisHash
	n.material.SpecVersion = "1003000"
	n.material.TxVersion = "26"

	return polkadot.New(cfg, n), n, from
}

func intent(from string) wallet.TransferIntent {
	return wallet.TransferIntent{
		Type:    wallet.TransactionTypeTransfer,
		AssetID: wallet.NativeAsset(chain.Polkadot),
		From:    from,
		To:      recipient,
		Amount:  big.NewInt(10_000_000_000),
	}
}

func TestPreload(t *testing.T) {
	client, n, from := setup(t)

	params, err := client.Preload(context.Background(), intent(from))
	require.NoError(t, err)

	data, ok := params.Data.(wallet.PolkadotSignData)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), data.BlockNumber)
	assert.Equal(t, uint64(5), data.Nonce)
	assert.Equal(t, uint64(64), data.Period)
	assert.Equal(t, uint32(1003000), data.SpecVersion)
	assert.Equal(t, uint32(26), data.TransactionVersion)
	assert.Equal(t, "158000000", params.Fee.Amount.String())
	require.Len(t, n.drafts, 1)

	in := intent(from)
	in.AssetID.TokenID = "1984"
	_, err = client.Preload(context.Background(), in)
	require.ErrorIs(t, err, wallet.ErrUnsupportedTransfer)
}

func TestSignExtrinsic(t *testing.T) {
	client, _, from := setup(t)

	params, err := client.Preload(context.Background(), intent(from))
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, repeat(1, 32), wallet.FeePriorityNormal)
	require.NoError(t, err)
	require.Len(t, signed, 1)
	ext := signed[0]

	key := ed25519.NewKeyFromSeed(repeat(1, 32))
	pub := key.Public().(ed25519.PublicKey) //nolint:forcetypeassert

	// compact(145) length prefix, signed v4, signer, signature, extra, call.
	require.Len(t, ext, 2+145)
	assert.Equal(t, []byte{0x45, 0x02}, ext[:2])
	body := ext[2:]
	assert.Equal(t, byte(0x84), body[0])
	assert.Equal(t, byte(0x00), body[1])
	assert.Equal(t, []byte(pub), body[2:34])
	assert.Equal(t, byte(0x00), body[34])
	sig := body[35:99]
	extra := body[99:104]
	call := body[104:]
	assert.Equal(t, []byte{0x85, 0x02, 0x14, 0x00, 0x00}, extra)
	assert.Equal(t, []byte{0x05, 0x03, 0x00}, call[:3])

	genesis, err := hexutil.Decode(genesisHash)
	require.NoError(t, err)
	var payload []byte
	payload = append(payload, call...)
	payload = append(payload, extra...)
	payload = binary.LittleEndian.AppendUint32(payload, 1003000)
	payload = binary.LittleEndian.AppendUint32(payload, 26)
	payload = append(payload, genesis...)
	payload = append(payload, repeat(0x11, 32)...)
	payload = append(payload, 0x00)
	assert.True(t, ed25519.Verify(pub, payload, sig))

	_, err = client.Sign(context.Background(), params, repeat(2, 32), wallet.FeePriorityNormal)
	var signErr *wallet.SignError
	require.ErrorAs(t, err, &signErr)
}

// The fee is quoted on a draft signed with a placeholder key. The real extrinsic must be the
// same bytes apart from the signer and signature.
func TestSignMatchesFeeDraft(t *testing.T) {
	for _, useMax := range []bool{false, true} {
		client, n, from := setup(t)

		in := intent(from)
		in.UseMaxAmount = useMax
		params, err := client.Preload(context.Background(), in)
		require.NoError(t, err)
		require.Len(t, n.drafts, 1)

		draft, err := hexutil.Decode(n.drafts[0])
		require.NoError(t, err)

		signed, err := client.Sign(context.Background(), params, repeat(1, 32), wallet.FeePriorityNormal)
		require.NoError(t, err)
		ext := signed[0]

		require.Len(t, draft, len(ext))

		// length prefix, version and address type
		assert.Equal(t, draft[:4], ext[:4])
		// signature scheme byte between signer and signature
		assert.Equal(t, draft[2+34], ext[2+34])
		// extra and call
		assert.Equal(t, draft[2+99:], ext[2+99:])
		assert.NotEqual(t, draft[2+35:2+99], ext[2+35:2+99])
	}
}

func TestSignMaxUsesTransferAll(t *testing.T) {
	client, _, from := setup(t)

	in := intent(from)
	in.UseMaxAmount = true
	params, err := client.Preload(context.Background(), in)
	require.NoError(t, err)

	signed, err := client.Sign(context.Background(), params, repeat(1, 32), wallet.FeePriorityNormal)
	require.NoError(t, err)

	call := signed[0][2+104:]
	assert.Equal(t, []byte{0x05, 0x04, 0x00}, call[:3])
	assert.Equal(t, byte(0x00), call[len(call)-1])
}

func TestSendComputesHash(t *testing.T) {
	client, n, _ := setup(t)

	hash, err := client.Send(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, polkadot.Hash([]byte{1, 2, 3}), hash)
	assert.Equal(t, []string{"0x010203"}, n.submitted)
}

func feePaid(amount string) polkadot.Event {
	var ev polkadot.Event
	ev.Method.Pallet = "transactionPayment"
	ev.Method.Method = "TransactionFeePaid"
	ev.Data = []json.RawMessage{json.RawMessage(`"15oF4"`), json.RawMessage(`"` + amount + `"`), json.RawMessage(`"0"`)}
	return ev
}

func TestGetStatus(t *testing.T) {
	client, n, _ := setup(t)
	req := wallet.StatusRequest{Chain: chain.Polkadot, Hash: "0xabc", BlockNumber: "1000"}

	n.head = 1010
	status, err := client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStatePending, status.State)

	ok := polkadot.Extrinsic{Hash: "0xABC", Success: true}
	ok.Info.PartialFee = "158000000"
	n.blocks[1003] = &polkadot.Block{Number: "1003", Extrinsics: []polkadot.Extrinsic{{Hash: "0x01"}, ok}}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateConfirmed, status.State)
	assert.Equal(t, "158000000", status.Fee.String())

	n.blocks[1003].Extrinsics[1] = polkadot.Extrinsic{Hash: "0xabc", Events: []polkadot.Event{feePaid("157")}}
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateReverted, status.State)
	assert.Equal(t, "157", status.Fee.String())

	delete(n.blocks, 1003)
	n.head = 1065
	status, err = client.GetStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateFailed, status.State)

	n.blockErr = errors.New("gateway timeout")
	_, err = client.GetStatus(context.Background(), req)
	var statusErr *wallet.StatusError
	require.ErrorAs(t, err, &statusErr)
}

func TestGetStatusWithoutBlockNumberScansRecentBlocks(t *testing.T) {
	client, n, _ := setup(t)

	n.head = 5000
	n.blocks[4990] = &polkadot.Block{Extrinsics: []polkadot.Extrinsic{{Hash: "0xabc", Success: true}}}

	status, err := client.GetStatus(context.Background(), wallet.StatusRequest{Chain: chain.Polkadot, Hash: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, wallet.TransactionStateConfirmed, status.State)
	assert.Nil(t, status.Fee)
}

func TestSidecarNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/transaction/material":
			assert.Equal(t, "true", r.URL.Query().Get("noMeta"))
			_, _ = w.Write([]byte(`{"at":{"hash":"0x11","height":"77"},"genesisHash":"0x91","specVersion":"1003000","txVersion":"26"}`))
		case "/accounts/15oF4/balance-info":
			_, _ = w.Write([]byte(`{"nonce":"9","free":"100"}`))
		case "/transaction/fee-estimate":
			_, _ = w.Write([]byte(`{"partialFee":"1234","class":"Normal"}`))
		case "/transaction":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":400,"error":"Failed to submit transaction.","cause":"1010: Invalid Transaction: Inability to pay some fees"}`))
		case "/blocks/head/header":
			_, _ = w.Write([]byte(`{"number":"500"}`))
		case "/blocks/499":
			_, _ = w.Write([]byte(`{"number":"499","extrinsics":[{"hash":"0xaa","success":true,"info":{"partialFee":"10"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	selector := node.NewSelector(map[chain.Chain][]string{chain.Polkadot: {srv.URL}})
	sidecar := polkadot.NewSidecarNode(node.NewREST(chain.Polkadot, selector))
	ctx := context.Background()

	material, err := sidecar.Material(ctx)
	require.NoError(t, err)
	assert.Equal(t, "77", material.At.Height)

	nonce, err := sidecar.Nonce(ctx, "15oF4")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), nonce)

	fee, err := sidecar.EstimateFee(ctx, "0x00")
	require.NoError(t, err)
	assert.Equal(t, "1234", fee)

	_, err = sidecar.Submit(ctx, "0x00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Inability to pay some fees")

	head, err := sidecar.HeadNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), head)

	block, err := sidecar.Block(ctx, 499)
	require.NoError(t, err)
	require.Len(t, block.Extrinsics, 1)
	assert.True(t, block.Extrinsics[0].Success)
}
