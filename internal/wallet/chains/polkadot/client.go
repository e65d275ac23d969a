// Package polkadot implements the transaction roles for the Polkadot relay chain through a
// Substrate API Sidecar.
package polkadot

import (
	"crypto/ed25519"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	networkPrefix = 0

	// eraPeriod is the number of blocks a signed extrinsic stays valid.
	eraPeriod = 64

	balancesPallet          = 5
	callTransferAll         = 4
	callTransferKeepAlive   = 3
	metadataHashSpecVersion = 1_002_000

	// signing payloads longer than this are hashed first.
	maxPayloadLength = 256

	multiAddressID    = 0x00
	multiSignatureEd  = 0x00
	extrinsicSignedV4 = 0x84
	scanConcurrency   = 8
)

// Client implements every transaction role for Polkadot.
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

// AccountAddress is the SS58 encoding of the Ed25519 public key.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return "", err
	}

	return ss58Encode(networkPrefix, key.Public().(ed25519.PublicKey)), nil //nolint:forcetypeassert
}
