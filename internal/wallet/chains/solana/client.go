// Package solana implements the transaction roles for Solana.
package solana

import (
	"github.com/gagliardetto/solana-go"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	baseFeeLamports   = 5000
	computeUnitLimit  = 200_000
	microLamports     = 1_000_000
	defaultUnitPrice  = 10_000
	maxFeeSampleCount = 150
)

// prioritization fee percentiles per tier
var tierPercentiles = map[wallet.FeePriority]int{
	wallet.FeePrioritySlow:   25,
	wallet.FeePriorityNormal: 50,
	wallet.FeePriorityFast:   75,
}

// Client implements every transaction role for Solana.
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

// AccountAddress returns the base58 public key of an ed25519 private key.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	key, err := signingKey(privateKey)
	if err != nil {
		return "", err
	}

	return key.PublicKey().String(), nil
}

func signingKey(privateKey []byte) (solana.PrivateKey, error) {
	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return nil, err
	}

	return solana.PrivateKey(key), nil
}
