package polkadot

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/wallet-txengine/internal/wallet"
)

const (
	alicePub      = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	alicePolkadot = "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"
	aliceGeneric  = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"0", "00"},
		{"1", "04"},
		{"63", "fc"},
		{"64", "0101"},
		{"16383", "fdff"},
		{"16384", "02000100"},
		{"1073741823", "feffffff"},
		{"1073741824", "0300000040"},
		{"10000000000", "0700e40b5402"},
		{"18446744073709551615", "13ffffffffffffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v, ok := new(big.Int).SetString(tt.value, 10)
			require.True(t, ok)
			encoded := compact(v)
			assert.Equal(t, tt.want, hex.EncodeToString(encoded))

			decoded, err := scale.NewDecoder(bytes.NewReader(encoded)).DecodeUintCompact()
			require.NoError(t, err)
			assert.Equal(t, 0, v.Cmp(decoded))
		})
	}
}

func TestEncoderLayout(t *testing.T) {
	encoded := newEncoder().u8(5).u32(1_003_000).raw([]byte{0xaa}).compactUint(64).Bytes()
	assert.Equal(t, []byte{0x05, 0xf8, 0x4d, 0x0f, 0x00, 0xaa, 0x01, 0x01}, encoded)
}

func TestMortalEra(t *testing.T) {
	assert.Equal(t, []byte{0x85, 0x02}, mortalEra(1000, 64))
	assert.Equal(t, []byte{0xa5, 0x02}, mortalEra(42, 64))
	// period rounds up to the next power of two
	assert.Equal(t, mortalEra(1000, 64), mortalEra(1000, 50))
}

func TestSS58(t *testing.T) {
	pub, err := hex.DecodeString(alicePub)
	require.NoError(t, err)

	assert.Equal(t, alicePolkadot, ss58Encode(0, pub))
	assert.Equal(t, aliceGeneric, ss58Encode(42, pub))

	prefix, decoded, err := ss58Decode(alicePolkadot)
	require.NoError(t, err)
	assert.Equal(t, byte(0), prefix)
	assert.Equal(t, pub, decoded)

	_, _, err = ss58Decode("15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp6")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestTransferCall(t *testing.T) {
	pub, err := hex.DecodeString(alicePub)
	require.NoError(t, err)

	call, err := transferCall(alicePolkadot, big.NewInt(10_000_000_000), false)
	require.NoError(t, err)
	want := append(append([]byte{0x05, 0x03, 0x00}, pub...), 0x07, 0x00, 0xe4, 0x0b, 0x54, 0x02)
	assert.Equal(t, want, call)

	call, err = transferCall(alicePolkadot, big.NewInt(10_000_000_000), true)
	require.NoError(t, err)
	want = append(append([]byte{0x05, 0x04, 0x00}, pub...), 0x00)
	assert.Equal(t, want, call)
}

func TestLongSigningPayloadIsHashed(t *testing.T) {
	x := extrinsic{
		call: bytes.Repeat([]byte{1}, 300),
		data: signDataFixture(),
	}
	assert.Len(t, x.signingPayload(), 32)

	x.call = []byte{1, 2, 3}
	assert.Greater(t, len(x.signingPayload()), 32)
}

func TestMetadataHashExtension(t *testing.T) {
	data := signDataFixture()
	x := extrinsic{data: data}
	assert.Equal(t, []byte{0x85, 0x02, 0x14, 0x00, 0x00}, x.extra())

	x.data.SpecVersion = 1_001_000
	assert.Equal(t, []byte{0x85, 0x02, 0x14, 0x00}, x.extra())
	assert.Len(t, x.additional(), 4+4+32+32)
}

func signDataFixture() wallet.PolkadotSignData {
	return wallet.PolkadotSignData{
		GenesisHash:        bytes.Repeat([]byte{0x91}, 32),
		BlockHash:          bytes.Repeat([]byte{0x11}, 32),
		BlockNumber:        1000,
		SpecVersion:        1_003_000,
		TransactionVersion: 26,
		Nonce:              5,
		Period:             eraPeriod,
	}
}
