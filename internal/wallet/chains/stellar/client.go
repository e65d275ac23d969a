// Package stellar implements the transaction roles for the Stellar network through Horizon.
package stellar

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	validityWindow = 300 // seconds
	// each subentry (trustline, offer, signer) locks half the two-entry account reserve
	subentryShare = 2
)

// Client implements every transaction role for Stellar.
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

// passphrase is the network passphrase signatures commit to.
func (c *Client) passphrase() string {
	if c.cfg.NetworkID != "" {
		return c.cfg.NetworkID
	}

	return network.PublicNetworkPassphrase
}

// AccountAddress is the G... strkey of the ed25519 public key.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	kp, err := fullKeypair(privateKey)
	if err != nil {
		return "", err
	}

	return kp.Address(), nil
}

func fullKeypair(privateKey []byte) (*keypair.Full, error) {
	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return nil, err
	}

	var seed [32]byte
	copy(seed[:], key.Seed())

	kp, err := keypair.FromRawSeed(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create keypair")
	}

	return kp, nil
}

// parseAsset reads a "CODE:ISSUER" token id.
func parseAsset(id wallet.AssetID) (txnbuild.Asset, error) {
	if id.IsNative() {
		return txnbuild.NativeAsset{}, nil
	}

	code, issuer, ok := strings.Cut(id.TokenID, ":")
	if !ok || code == "" || issuer == "" {
		return nil, errors.Errorf("invalid asset %q, want CODE:ISSUER", id.TokenID)
	}

	return txnbuild.CreditAsset{Code: code, Issuer: issuer}, nil
}
