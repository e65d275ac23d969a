package bitcoin

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

// LitecoinParams and DogeParams only carry what address handling needs.
var (
	LitecoinParams = func() chaincfg.Params {
		p := chaincfg.MainNetParams
		p.Name = "litecoin"
		p.Net = wire.BitcoinNet(0xdbb6c0fb)
		p.PubKeyHashAddrID = 0x30
		p.ScriptHashAddrID = 0x32
		p.PrivateKeyID = 0xb0
		p.Bech32HRPSegwit = "ltc"
		return p
	}()

	DogeParams = func() chaincfg.Params {
		p := chaincfg.MainNetParams
		p.Name = "dogecoin"
		p.Net = wire.BitcoinNet(0xc0c0c0c0)
		p.PubKeyHashAddrID = 0x1e
		p.ScriptHashAddrID = 0x16
		p.PrivateKeyID = 0x9e
		p.Bech32HRPSegwit = ""
		return p
	}()
)

func init() {
	// segwit address decoding only recognises registered bech32 prefixes
	if err := chaincfg.Register(&LitecoinParams); err != nil && !errors.Is(err, chaincfg.ErrDuplicateNet) {
		panic(err)
	}
}

// network holds the per-chain constants of the Bitcoin family.
type network struct {
	params     *chaincfg.Params
	segwit     bool
	minByteFee int64
	dust       int64
	// confirmation targets in blocks for Fast, Normal, Slow
	targets map[wallet.FeePriority]int
}

func networkFor(c chain.Chain) (*network, error) {
	switch c {
	case chain.Bitcoin:
		return &network{
			params: &chaincfg.MainNetParams, segwit: true, minByteFee: 1, dust: 546,
			targets: map[wallet.FeePriority]int{wallet.FeePriorityFast: 1, wallet.FeePriorityNormal: 3, wallet.FeePrioritySlow: 6},
		}, nil
	case chain.Litecoin:
		return &network{
			params: &LitecoinParams, segwit: true, minByteFee: 5, dust: 546,
			targets: map[wallet.FeePriority]int{wallet.FeePriorityFast: 1, wallet.FeePriorityNormal: 3, wallet.FeePrioritySlow: 6},
		}, nil
	case chain.Doge:
		return &network{
			params: &DogeParams, segwit: false, minByteFee: 1000, dust: 1_000_000,
			targets: map[wallet.FeePriority]int{wallet.FeePriorityFast: 2, wallet.FeePriorityNormal: 4, wallet.FeePrioritySlow: 8},
		}, nil
	default:
		return nil, errors.Wrapf(wallet.ErrUnsupportedChain, "%s is not a bitcoin family chain", c)
	}
}

// address returns the account address the engine uses for a public key: P2WPKH where segwit
// is available, P2PKH otherwise.
func (n *network) address(pub *btcec.PublicKey) (btcutil.Address, error) {
	hash := btcutil.Hash160(pub.SerializeCompressed())
	if n.segwit {
		return btcutil.NewAddressWitnessPubKeyHash(hash, n.params)
	}

	return btcutil.NewAddressPubKeyHash(hash, n.params)
}

// AccountAddress encodes the account address of a secp256k1 private key.
func AccountAddress(cfg *chain.Config, privateKey []byte) (string, error) {
	net, err := networkFor(cfg.Chain)
	if err != nil {
		return "", err
	}

	if len(privateKey) != btcec.PrivKeyBytesLen {
		return "", wallet.ErrInvalidKey
	}

	_, pub := btcec.PrivKeyFromBytes(privateKey)

	addr, err := net.address(pub)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode address")
	}

	return addr.EncodeAddress(), nil
}
