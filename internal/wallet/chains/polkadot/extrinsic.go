package polkadot

import (
	"crypto/ed25519"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github/chapool/wallet-txengine/internal/wallet"
)

// extrinsic is a call and the chain material it is signed against.
type extrinsic struct {
	call []byte
	data wallet.PolkadotSignData
}

// transferCall encodes Balances.transfer_keep_alive, or Balances.transfer_all when the whole
// balance is sent.
func transferCall(to string, amount *big.Int, sendAll bool) ([]byte, error) {
	_, dest, err := ss58Decode(to)
	if err != nil {
		return nil, err
	}

	e := newEncoder()
	if sendAll {
		e.u8(balancesPallet).u8(callTransferAll).u8(multiAddressID).raw(dest).u8(0)
		return e.Bytes(), nil
	}

	e.u8(balancesPallet).u8(callTransferKeepAlive).u8(multiAddressID).raw(dest).compact(amount)

	return e.Bytes(), nil
}

func (x extrinsic) metadataHash() bool {
	return x.data.SpecVersion >= metadataHashSpecVersion
}

// extra is the signed extension data carried in the extrinsic: era, nonce, tip and the
// metadata hash mode.
func (x extrinsic) extra() []byte {
	e := newEncoder()
	e.raw(mortalEra(x.data.BlockNumber, x.data.Period)).compactUint(x.data.Nonce).compactUint(0)
	if x.metadataHash() {
		e.u8(0)
	}

	return e.Bytes()
}

// additional is the signed extension data only committed to by the signature.
func (x extrinsic) additional() []byte {
	e := newEncoder()
	e.u32(x.data.SpecVersion).u32(x.data.TransactionVersion).raw(x.data.GenesisHash).raw(x.data.BlockHash)
	if x.metadataHash() {
		e.u8(0)
	}

	return e.Bytes()
}

func (x extrinsic) signingPayload() []byte {
	e := newEncoder()
	e.raw(x.call).raw(x.extra()).raw(x.additional())

	payload := e.Bytes()
	if len(payload) > maxPayloadLength {
		sum := blake2b.Sum256(payload)
		return sum[:]
	}

	return payload
}

// sign returns the length prefixed signed extrinsic.
func (x extrinsic) sign(key ed25519.PrivateKey) []byte {
	pub := key.Public().(ed25519.PublicKey) //nolint:forcetypeassert
	sig := ed25519.Sign(key, x.signingPayload())

	body := newEncoder()
	body.u8(extrinsicSignedV4).
		u8(multiAddressID).raw(pub).
		u8(multiSignatureEd).raw(sig).
		raw(x.extra()).
		raw(x.call)

	out := newEncoder()
	out.compactUint(uint64(body.Len())).raw(body.Bytes())

	return out.Bytes()
}

// Hash is the blake2b-256 of the encoded extrinsic, as "0x" hex.
func Hash(encoded []byte) string {
	sum := blake2b.Sum256(encoded)
	return hexutil.Encode(sum[:])
}

func signData(m *Material, nonce uint64) (wallet.PolkadotSignData, error) {
	genesis, err := hexutil.Decode(m.GenesisHash)
	if err != nil {
		return wallet.PolkadotSignData{}, errors.Wrap(err, "invalid genesis hash")
	}

	block, err := hexutil.Decode(m.At.Hash)
	if err != nil {
		return wallet.PolkadotSignData{}, errors.Wrap(err, "invalid block hash")
	}

	height, err := strconv.ParseUint(m.At.Height, 10, 64)
	if err != nil {
		return wallet.PolkadotSignData{}, errors.Wrap(err, "invalid block height")
	}

	spec, err := strconv.ParseUint(m.SpecVersion, 10, 32)
	if err != nil {
		return wallet.PolkadotSignData{}, errors.Wrap(err, "invalid spec version")
	}

	txVersion, err := strconv.ParseUint(m.TxVersion, 10, 32)
	if err != nil {
		return wallet.PolkadotSignData{}, errors.Wrap(err, "invalid transaction version")
	}

	return wallet.PolkadotSignData{
		GenesisHash:        genesis,
		BlockHash:          block,
		BlockNumber:        height,
		SpecVersion:        uint32(spec),
		TransactionVersion: uint32(txVersion),
		Nonce:              nonce,
		Period:             eraPeriod,
	}, nil
}
