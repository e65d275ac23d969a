package tron

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github/chapool/wallet-txengine/internal/wallet"
)

const usdt = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

func TestDecodeAddress(t *testing.T) {
	addr, err := decodeAddress(usdt)
	require.NoError(t, err)
	assert.Equal(t, "41a614f803b6fd780986a42c78ec9c7f77e6ded13c", hex.EncodeToString(addr))

	_, err = decodeAddress("0xa614f803b6fd780986a42c78ec9c7f77e6ded13c")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestTRC20Transfer(t *testing.T) {
	to, err := decodeAddress(usdt)
	require.NoError(t, err)

	data := trc20Transfer(to, big.NewInt(1_000_000))
	require.Len(t, data, 68)
	assert.Equal(t, "a9059cbb", hex.EncodeToString(data[:4]))
	assert.Equal(t, "000000000000000000000000a614f803b6fd780986a42c78ec9c7f77e6ded13c", hex.EncodeToString(data[4:36]))
	assert.Equal(t, "00000000000000000000000000000000000000000000000000000000000f4240", hex.EncodeToString(data[36:]))
	assert.Equal(t, hex.EncodeToString(data[4:]), trc20Parameter(to, big.NewInt(1_000_000)))
}

func TestRawDataReferencesBlock(t *testing.T) {
	blockID := make([]byte, 32)
	for i := range blockID {
		blockID[i] = byte(i)
	}

	call, err := transferContract([]byte{0x41}, []byte{0x41}, 1)
	require.NoError(t, err)
	assert.Equal(t, "type.googleapis.com/protocol.TransferContract", call.GetParameter().GetTypeUrl())

	data := wallet.TronSignData{BlockNumber: 0x0102_0304, BlockHash: blockID, BlockTimestamp: 1_700_000_000_000}
	raw, err := rawData(data, call, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x04}, raw.GetRefBlockBytes())
	assert.Equal(t, []byte{8, 9, 10, 11, 12, 13, 14, 15}, raw.GetRefBlockHash())
	assert.Equal(t, int64(1_700_000_000_000+expirationWindow), raw.GetExpiration())
	assert.Nil(t, raw.GetData())

	encoded, err := proto.Marshal(raw)
	require.NoError(t, err)
	// ref_block_bytes and ref_block_hash lead the serialized raw data
	assert.Equal(t, []byte{0x0a, 0x02, 0x03, 0x04, 0x22, 0x08, 8, 9, 10, 11, 12, 13, 14, 15}, encoded[:14])

	_, err = rawData(wallet.TronSignData{BlockHash: []byte{1}}, call, "", 0)
	require.Error(t, err)
}

func TestTxID(t *testing.T) {
	_, err := TxID([]byte{0x12, 0x01, 0x00})
	require.Error(t, err, "signature without raw data")

	_, err = TxID([]byte{0xff})
	require.Error(t, err)
}
