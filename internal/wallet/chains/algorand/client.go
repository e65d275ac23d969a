// Package algorand implements the transaction roles for Algorand payments and ASA transfers.
package algorand

import (
	"crypto/ed25519"
	"strconv"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

// rounds a transaction stays valid for
const validityRounds = 1000

// Client implements every transaction role for Algorand.
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

// AccountAddress is the base32 public key with its checksum.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	key, err := wallet.Ed25519Key(privateKey)
	if err != nil {
		return "", err
	}

	var addr types.Address
	copy(addr[:], key.Public().(ed25519.PublicKey)) //nolint:forcetypeassert

	return addr.String(), nil
}

// assetIndex parses the ASA id carried as token id.
func assetIndex(id wallet.AssetID) (uint64, error) {
	index, err := strconv.ParseUint(id.TokenID, 10, 64)
	if err != nil || index == 0 {
		return 0, errors.Errorf("invalid asset id %q", id.TokenID)
	}

	return index, nil
}
