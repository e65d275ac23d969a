// Package near implements the transaction roles for NEAR implicit accounts.
package near

import (
	"crypto/ed25519"
	"encoding/hex"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	// gas burnt by a plain transfer, rounded up
	transferGas = 450_000_000_000
	// gas attached to ft_transfer
	ftTransferGas = 30_000_000_000_000
	// storage staking cost per byte, in yoctoNEAR
	storageByteCost = 10_000_000_000_000_000_000
)

// Client implements every transaction role for NEAR.
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

// AccountAddress is the implicit account id: the hex encoded public key.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(key.Public().(ed25519.PublicKey)), nil //nolint:forcetypeassert
}

// implicitKey recovers the public key of an implicit account id.
func implicitKey(account string) (ed25519.PublicKey, error) {
	pub, err := hex.DecodeString(account)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, errors.Errorf("%q is not an implicit account", account)
	}

	return pub, nil
}

// encodeKey renders the "ed25519:<base58>" form used by the RPC.
func encodeKey(pub ed25519.PublicKey) string {
	return "ed25519:" + base58.Encode(pub)
}
