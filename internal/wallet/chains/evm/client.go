// Package evm implements the transaction roles for EVM chains (Ethereum, BNB Smart Chain,
// Polygon, Arbitrum, Optimism, Base, Avalanche C-Chain).
package evm

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

const (
	nativeGasLimit     = 21000
	feeHistoryBlocks   = 10
	baseFeeMultiplier  = 2
	gasBufferNumerator = 3 // estimated limits get a 1.5x buffer
	gasBufferDivisor   = 2
)

var (
	transferMethodID = common.Hex2Bytes("a9059cbb")

	// reward percentiles per priority: Slow, Normal, Fast
	rewardPercentiles = []float64{25, 50, 75}
)

// Client implements every transaction role for one EVM chain.
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

// AccountAddress returns the checksummed address of a secp256k1 private key.
func AccountAddress(_ *chain.Config, privateKey []byte) (string, error) {
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return "", errors.Wrap(wallet.ErrInvalidKey, err.Error())
	}

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

// erc20TransferData builds the calldata of transfer(to, amount).
func erc20TransferData(to common.Address, amount []byte) []byte {
	const paddedLength = 32

	data := make([]byte, 0, len(transferMethodID)+2*paddedLength)
	data = append(data, transferMethodID...)
	data = append(data, common.LeftPadBytes(to.Bytes(), paddedLength)...)
	data = append(data, common.LeftPadBytes(amount, paddedLength)...)

	return data
}

func publicAddress(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
