// Package cardano implements the transaction roles for Cardano, spending enterprise address
// UTXOs with a single ed25519 witness.
package cardano

import (
	"crypto/ed25519"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	// linear fee parameters of the current protocol
	minFeeA = 44
	minFeeB = 155381

	// minOutput is the smallest ada-only output the ledger accepts.
	minOutput = 1_000_000

	// ttlSlots bounds the validity interval of a transaction.
	ttlSlots = 7200

	headerEnterprise = 0x60
	mainnetID        = 0x01
)

var ErrInvalidAddress = errors.New("invalid cardano address")

// Client implements every transaction role for Cardano.
type Client struct {
	cfg  *chain.Config
	node Node
}

func New(cfg *chain.Config, n Node) *Client {
	return &Client{cfg: cfg, node: n}
}

func (c *Client) Chain() chain.Chain {
	return c.cfg.Chain
}

// AccountAddress returns the enterprise address of the ed25519 key.
func AccountAddress(cfg *chain.Config, privateKey []byte) (string, error) {
	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return "", err
	}
	defer clear(key)

	raw := enterpriseAddress(cfg, key.Public().(ed25519.PublicKey))

	return encodeAddress(cfg.AddressPrefix, raw)
}

func networkID(cfg *chain.Config) byte {
	if cfg.NetworkID == "mainnet" {
		return mainnetID
	}

	return 0
}

func enterpriseAddress(cfg *chain.Config, pub ed25519.PublicKey) []byte {
	hash, _ := blake2b.New(28, nil)
	hash.Write(pub)

	return append([]byte{headerEnterprise | networkID(cfg)}, hash.Sum(nil)...)
}

func encodeAddress(hrp string, raw []byte) (string, error) {
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert address bits")
	}

	addr, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode address")
	}

	return addr, nil
}

// decodeAddress accepts any Shelley address of the configured network. Base addresses exceed
// the 90 character bech32 limit.
func decodeAddress(cfg *chain.Config, addr string) ([]byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAddress, "%s: %v", addr, err)
	}
	if hrp != cfg.AddressPrefix {
		return nil, errors.Wrapf(ErrInvalidAddress, "%s: unexpected prefix %q", addr, hrp)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil || len(raw) < 29 {
		return nil, errors.Wrapf(ErrInvalidAddress, "%s: bad payload", addr)
	}

	if raw[0]&0x0f != networkID(cfg) {
		return nil, errors.Wrapf(ErrInvalidAddress, "%s: wrong network", addr)
	}

	return raw, nil
}
