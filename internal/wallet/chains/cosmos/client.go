// Package cosmos implements the transaction roles for Cosmos SDK chains.
package cosmos

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

// Client implements every transaction role for one Cosmos SDK chain.
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

// AccountAddress is the bech32 encoding of hash160 of the compressed public key.
func AccountAddress(cfg *chain.Config, privateKey []byte) (string, error) {
	if len(privateKey) != secp256k1.PrivKeyBytesLen {
		return "", wallet.ErrInvalidKey
	}

	key := secp256k1.PrivKeyFromBytes(privateKey)
	defer key.Zero()

	return address(cfg.AddressPrefix, key.PubKey().SerializeCompressed())
}

func address(prefix string, compressedPub []byte) (string, error) {
	conv, err := bech32.ConvertBits(btcutil.Hash160(compressedPub), 8, 5, true)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert address bits")
	}

	addr, err := bech32.Encode(prefix, conv)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode address")
	}

	return addr, nil
}
