// Package ton implements the transaction roles for TON v4r2 wallet contracts.
package ton

import (
	"crypto/ed25519"
	"strings"

	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/address"
	tonwallet "github.com/xssnick/tonutils-go/ton/wallet"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	validityWindow = 300 // seconds

	// pay transfer fees separately, ignore action phase errors
	sendModeDefault = 3
	// carry the whole remaining balance, ignore action phase errors
	sendModeAll = 128 + 2

	jettonTransferOp = 0x0f8a7ea5
	// TON attached to a jetton transfer for the jetton wallets' gas, the excess is returned
	jettonAttachedAmount = 50_000_000
	jettonForwardAmount  = 1
)

// Client implements every transaction role for TON.
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

// AccountAddress is the non-bounceable address of the v4r2 wallet owned by the key.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return "", err
	}

	addr, err := walletAddress(key.Public().(ed25519.PublicKey)) //nolint:forcetypeassert
	if err != nil {
		return "", err
	}

	return addr.String(), nil
}

func walletAddress(pub ed25519.PublicKey) (*address.Address, error) {
	addr, err := tonwallet.AddressFromPubKey(pub, tonwallet.V4R2, tonwallet.DefaultSubwallet)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive wallet address")
	}
	addr.SetBounce(false)

	return addr, nil
}

// parseAddress accepts user friendly and raw ("0:<hex>") addresses.
func parseAddress(s string) (*address.Address, error) {
	if strings.Contains(s, ":") {
		addr, err := address.ParseRawAddr(s)
		return addr, errors.Wrapf(err, "invalid address %q", s)
	}

	addr, err := address.ParseAddr(s)
	return addr, errors.Wrapf(err, "invalid address %q", s)
}
