package polkadot

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"math/bits"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

var ErrInvalidAddress = errors.New("invalid ss58 address")

var ss58Prefix = []byte("SS58PRE")

// encoder writes SCALE values into memory. Writes to the buffer cannot fail, so the
// scale.Encoder errors are dropped.
type encoder struct {
	buf bytes.Buffer
	enc *scale.Encoder
}

func newEncoder() *encoder {
	e := &encoder{}
	e.enc = scale.NewEncoder(&e.buf)

	return e
}

func (e *encoder) u8(v byte) *encoder {
	_ = e.enc.PushByte(v)
	return e
}

func (e *encoder) u32(v uint32) *encoder {
	_ = e.enc.Encode(v)
	return e
}

func (e *encoder) raw(v []byte) *encoder {
	_ = e.enc.Write(v)
	return e
}

func (e *encoder) compact(v *big.Int) *encoder {
	_ = e.enc.EncodeUintCompact(*v)
	return e
}

func (e *encoder) compactUint(v uint64) *encoder {
	return e.compact(new(big.Int).SetUint64(v))
}

func (e *encoder) Len() int {
	return e.buf.Len()
}

func (e *encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// compact is the SCALE compact encoding of a non-negative integer.
func compact(v *big.Int) []byte {
	return newEncoder().compact(v).Bytes()
}

// mortalEra encodes a mortal era starting at the given block. The period is rounded up to a
// power of two in [4, 65536].
func mortalEra(blockNumber, period uint64) []byte {
	p := uint64(1) << bits.Len64(period-1)
	p = min(max(p, 4), 1<<16)

	phase := blockNumber % p
	quantize := max(p>>12, 1)

	low := uint16(min(max(bits.TrailingZeros64(p)-1, 1), 15))
	encoded := low | uint16(phase/quantize)<<4

	return binary.LittleEndian.AppendUint16(nil, encoded)
}

// ss58Encode renders a 32 byte public key for a single byte network prefix.
func ss58Encode(prefix byte, pub []byte) string {
	payload := append([]byte{prefix}, pub...)
	sum := ss58Checksum(payload)

	return base58.Encode(append(payload, sum[:2]...))
}

func ss58Decode(address string) (byte, []byte, error) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 1+32+2 {
		return 0, nil, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}

	payload := raw[:33]
	sum := ss58Checksum(payload)
	if !bytes.Equal(sum[:2], raw[33:]) {
		return 0, nil, errors.Wrapf(ErrInvalidAddress, "%q: bad checksum", address)
	}

	return raw[0], payload[1:], nil
}

func ss58Checksum(payload []byte) [64]byte {
	return blake2b.Sum512(append(append([]byte(nil), ss58Prefix...), payload...))
}
