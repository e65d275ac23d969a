// Package tron implements the transaction roles for Tron.
package tron

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fbsobreira/gotron-sdk/pkg/address"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	// expirationWindow is added to the reference block timestamp, in milliseconds.
	expirationWindow = 10 * 60 * 60 * 1000

	// a native transfer needs this much free bandwidth, otherwise it burns transferBurn sun.
	transferBandwidth = 300
	transferBurn      = 280_000

	// energyBufferPercent pads estimated TRC-20 energy.
	energyBufferPercent = 20
)

var ErrInvalidAddress = errors.New("invalid tron address")

// Client implements every transaction role for Tron.
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

// AccountAddress is the base58check encoding of 0x41 and the last 20 bytes of the Keccak-256
// of the uncompressed public key.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return "", wallet.ErrInvalidKey
	}

	return address.PubkeyToAddress(key.PublicKey).String(), nil
}

// decodeAddress returns the 21 byte address including the 0x41 prefix.
func decodeAddress(s string) (address.Address, error) {
	addr, err := address.Base58ToAddress(s)
	if err != nil || len(addr) != address.AddressLength || addr[0] != address.TronBytePrefix {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q", s)
	}

	return addr, nil
}
