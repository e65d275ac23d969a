// Package aptos implements the transaction roles for Aptos.
package aptos

import (
	"crypto/ed25519"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	// max gas for token transfers, which are not simulated
	tokenMaxGasAmount = 1_500
	simulateMaxGas    = 200_000
	expirationWindow  = 3600 // seconds
	gasBufferNum      = 3
	gasBufferDen      = 2

	// single ed25519 key authentication scheme
	ed25519Scheme = 0x00
)

var rawTransactionSalt = sha3.Sum256([]byte("APTOS::RawTransaction"))

// Client implements every transaction role for Aptos.
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

// AccountAddress is sha3-256 of the public key followed by the scheme byte.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return "", err
	}

	return address(key.Public().(ed25519.PublicKey)), nil //nolint:forcetypeassert
}

func address(pub ed25519.PublicKey) string {
	sum := sha3.Sum256(append(append([]byte(nil), pub...), ed25519Scheme))
	return "0x" + hex.EncodeToString(sum[:])
}

// signingMessage prefixes the BCS raw transaction with its domain separator.
func signingMessage(raw []byte) []byte {
	msg := make([]byte, 0, len(rawTransactionSalt)+len(raw))
	msg = append(msg, rawTransactionSalt[:]...)
	return append(msg, raw...)
}
