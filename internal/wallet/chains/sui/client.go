// Package sui implements the transaction roles for Sui.
package sui

import (
	"crypto/ed25519"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	nativeCoinType  = "0x2::sui::SUI"
	gasBudget       = 25_000_000
	defaultGasPrice = 750

	// signature scheme flag for ed25519
	ed25519Flag = 0x00
)

// transaction data intent: scope TransactionData, version V0, app Sui
var transactionIntent = []byte{0, 0, 0}

// Client implements every transaction role for Sui.
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

// AccountAddress is blake2b-256 of the scheme flag and the ed25519 public key.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return "", err
	}

	return address(key.Public().(ed25519.PublicKey)), nil //nolint:forcetypeassert
}

func address(pub ed25519.PublicKey) string {
	sum := blake2b.Sum256(append([]byte{ed25519Flag}, pub...))
	return "0x" + hex.EncodeToString(sum[:])
}

// digest is what gets signed: blake2b-256 over the intent prefix and the BCS transaction bytes.
func digest(txBytes []byte) [32]byte {
	return blake2b.Sum256(append(append([]byte(nil), transactionIntent...), txBytes...))
}
