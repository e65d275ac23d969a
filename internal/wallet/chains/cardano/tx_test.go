package cardano

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github/chapool/wallet-txengine/internal/wallet"
)

func TestBodyEncoding(t *testing.T) {
	from := bytes.Repeat([]byte{0x61}, 29)
	to := bytes.Repeat([]byte{0x22}, 29)
	p := &plan{
		inputs: []wallet.UTXO{{TxID: hex.EncodeToString(bytes.Repeat([]byte{0x11}, 32)), Vout: 1}},
		amount: 2_000_000,
		fee:    170_000,
	}

	body, err := p.body(from, to, 1000)
	require.NoError(t, err)

	var want []byte
	want = append(want, 0xa4, 0x00, 0x81, 0x82, 0x58, 0x20)
	want = append(want, bytes.Repeat([]byte{0x11}, 32)...)
	want = append(want, 0x01)
	want = append(want, 0x01, 0x81, 0x82, 0x58, 0x1d)
	want = append(want, to...)
	want = append(want, 0x1a, 0x00, 0x1e, 0x84, 0x80)
	want = append(want, 0x02, 0x1a, 0x00, 0x02, 0x98, 0x10)
	want = append(want, 0x03, 0x19, 0x03, 0xe8)
	assert.Equal(t, want, body)

	p.change = 5_000_000
	withChange, err := p.body(from, to, 1000)
	require.NoError(t, err)
	assert.Equal(t, byte(0x82), withChange[6+32+1+1], "two outputs")
}

func TestTransactionEnvelope(t *testing.T) {
	body := []byte{0xa0}
	pub := bytes.Repeat([]byte{0x01}, 32)
	sig := bytes.Repeat([]byte{0x02}, 64)

	tx, err := encodeTransaction(body, pub, sig)
	require.NoError(t, err)

	var want []byte
	want = append(want, 0x84, 0xa0)
	want = append(want, 0xa1, 0x00, 0x81, 0x82, 0x58, 0x20)
	want = append(want, pub...)
	want = append(want, 0x58, 0x40)
	want = append(want, sig...)
	want = append(want, 0xf5, 0xf6)
	assert.Equal(t, want, tx)

	hash, err := TxHash(tx)
	require.NoError(t, err)
	sum := blake2b.Sum256(body)
	assert.Equal(t, hex.EncodeToString(sum[:]), hash)

	_, err = TxHash([]byte{0xff})
	require.Error(t, err)
}

func TestBodyRejectsBadInputHash(t *testing.T) {
	p := &plan{inputs: []wallet.UTXO{{TxID: "abcd"}}, amount: minOutput}
	_, err := p.body(nil, nil, 0)
	require.Error(t, err)
}

func TestLovelace(t *testing.T) {
	v, err := lovelace(nil)
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = lovelace(big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	_, err = lovelace(big.NewInt(-1))
	require.Error(t, err)
}
