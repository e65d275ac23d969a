package chain

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Chain identifies a blockchain network. It is the partition key for every per-chain client.
type Chain string

const (
	Bitcoin  Chain = "bitcoin"
	Litecoin Chain = "litecoin"
	Doge     Chain = "doge"

	Ethereum   Chain = "ethereum"
	SmartChain Chain = "smartchain"
	Polygon    Chain = "polygon"
	Arbitrum   Chain = "arbitrum"
	Optimism   Chain = "optimism"
	Base       Chain = "base"
	AvalancheC Chain = "avalanchec"

	Solana Chain = "solana"
	Sui    Chain = "sui"
	Aptos  Chain = "aptos"

	Cosmos   Chain = "cosmos"
	Osmosis  Chain = "osmosis"
	Celestia Chain = "celestia"

	Xrp      Chain = "xrp"
	Polkadot Chain = "polkadot"
	Cardano  Chain = "cardano"
	Tron     Chain = "tron"

	Ton      Chain = "ton"
	Near     Chain = "near"
	Stellar  Chain = "stellar"
	Algorand Chain = "algorand"
)

// Family groups chains that share transaction encoding and node APIs.
type Family string

const (
	FamilyBitcoin  Family = "bitcoin"
	FamilyEVM      Family = "evm"
	FamilySolana   Family = "solana"
	FamilySui      Family = "sui"
	FamilyAptos    Family = "aptos"
	FamilyCosmos   Family = "cosmos"
	FamilyXrp      Family = "xrp"
	FamilyPolkadot Family = "polkadot"
	FamilyCardano  Family = "cardano"
	FamilyTron     Family = "tron"
	FamilyTon      Family = "ton"
	FamilyNear     Family = "near"
	FamilyStellar  Family = "stellar"
	FamilyAlgorand Family = "algorand"
)

// Ed25519 reports families whose accounts use Ed25519 keys derived with SLIP-10.
func (f Family) Ed25519() bool {
	switch f {
	case FamilySolana, FamilySui, FamilyAptos, FamilyPolkadot, FamilyCardano,
		FamilyTon, FamilyNear, FamilyStellar, FamilyAlgorand:
		return true
	default:
		return false
	}
}

var ErrUnknownChain = errors.New("unknown chain")

// HexOrBech32Addresses reports chains whose address text is case-insensitive: hex accounts
// (EVM, Sui, Aptos) and bech32 accounts (Cosmos SDK, Cardano). Base58 addresses are not.
func (c Chain) HexOrBech32Addresses() bool {
	switch c {
	case Ethereum, SmartChain, Polygon, Arbitrum, Optimism, Base, AvalancheC,
		Sui, Aptos, Cosmos, Osmosis, Celestia, Cardano:
		return true
	default:
		return false
	}
}

// SameAddress compares two addresses of chain c.
func (c Chain) SameAddress(a, b string) bool {
	if c.HexOrBech32Addresses() {
		return strings.EqualFold(a, b)
	}

	return a == b
}

// All returns every chain known to the engine in a stable order.
func All() []Chain {
	return []Chain{
		Bitcoin, Litecoin, Doge,
		Ethereum, SmartChain, Polygon, Arbitrum, Optimism, Base, AvalancheC,
		Solana, Sui, Aptos,
		Cosmos, Osmosis, Celestia,
		Xrp, Polkadot, Cardano, Tron,
		Ton, Near, Stellar, Algorand,
	}
}

// Parse converts a user supplied chain name into a Chain.
func Parse(s string) (Chain, error) {
	c := Chain(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All() {
		if known == c {
			return c, nil
		}
	}

	return "", errors.Wrapf(ErrUnknownChain, "%q", s)
}

func (c Chain) String() string {
	return string(c)
}

// Config is the static configuration of a single chain.
type Config struct {
	Chain    Chain  `toml:"-"`
	Name     string `toml:"name"`
	Family   Family `toml:"family"`
	Symbol   string `toml:"symbol"`
	Decimals int32  `toml:"decimals"`

	// DerivationPath is the BIP44 style path of the account key.
	DerivationPath string `toml:"derivation_path"`

	// BlockTime is the expected interval between blocks.
	BlockTime time.Duration `toml:"block_time"`
	// TransactionTimeout is how long a broadcast transaction may stay unconfirmed before it is
	// presumed dead and failed locally.
	TransactionTimeout time.Duration `toml:"transaction_timeout"`

	// EVM
	EVMChainID int64 `toml:"evm_chain_id"`

	// Cosmos / Polkadot / Cardano / Near / Stellar address and network parameters
	NetworkID     string `toml:"network_id"`
	AddressPrefix string `toml:"address_prefix"`
	Denom         string `toml:"denom"`

	// GasLimit and FeeAmount are used by chains whose fee is defined by configuration.
	GasLimit  uint64 `toml:"gas_limit"`
	FeeAmount string `toml:"fee_amount"`

	// Reserve is the amount (smallest unit) an account must keep on reserve-requiring chains.
	Reserve string `toml:"reserve"`

	// Endpoints are the default node endpoints, overridable per environment.
	Endpoints []string `toml:"endpoints"`
}

// Service 定义链配置服务接口
type Service interface {
	// GetChain 查询单条链配置
	GetChain(c Chain) (*Config, error)

	// ListChains 查询所有链配置
	ListChains() []*Config

	// EnabledChains 查询启用的链配置
	EnabledChains() []*Config

	// ParseRPCURLs 解析 RPC URL（支持多个，逗号分隔）
	ParseRPCURLs(rpcURL string) []string
}
