// Package xrp implements the transaction roles for the XRP ledger.
package xrp

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	// ledgerWindow is how many ledgers a transaction stays valid after preload.
	ledgerWindow = 12

	// tokenDecimals is the fixed scale of issued currency amounts in a TransferIntent.
	tokenDecimals = 6

	// trustLimit is the limit set when activating an issued currency.
	trustLimit = "690000000000"

	flagFullyCanonicalSig uint32 = 0x80000000

	txTypePayment  = "Payment"
	txTypeTrustSet = "TrustSet"
)

var ErrInvalidTokenID = errors.New("token id must be <currency>.<issuer>")

// Client implements every transaction role for the XRP ledger.
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

// AccountAddress is the classic address of hash160 of the compressed public key.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	if len(privateKey) != secp256k1.PrivKeyBytesLen {
		return "", wallet.ErrInvalidKey
	}

	key := secp256k1.PrivKeyFromBytes(privateKey)
	defer key.Zero()

	return encodeAddress(btcutil.Hash160(key.PubKey().SerializeCompressed())), nil
}

// parseToken splits "<currency>.<issuer>" and validates the issuer address.
func parseToken(tokenID string) (string, string, error) {
	currency, issuer, found := strings.Cut(tokenID, ".")
	if !found || currency == "" {
		return "", "", errors.Wrapf(ErrInvalidTokenID, "%q", tokenID)
	}

	if _, err := decodeAddress(issuer); err != nil {
		return "", "", err
	}

	return currency, issuer, nil
}
