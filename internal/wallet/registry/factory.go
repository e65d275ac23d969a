package registry

import (
	"net/http"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/chains/algorand"
	"github/chapool/wallet-txengine/internal/wallet/chains/aptos"
	"github/chapool/wallet-txengine/internal/wallet/chains/bitcoin"
	"github/chapool/wallet-txengine/internal/wallet/chains/cardano"
	"github/chapool/wallet-txengine/internal/wallet/chains/cosmos"
	"github/chapool/wallet-txengine/internal/wallet/chains/evm"
	"github/chapool/wallet-txengine/internal/wallet/chains/near"
	"github/chapool/wallet-txengine/internal/wallet/chains/polkadot"
	"github/chapool/wallet-txengine/internal/wallet/chains/solana"
	"github/chapool/wallet-txengine/internal/wallet/chains/stellar"
	"github/chapool/wallet-txengine/internal/wallet/chains/sui"
	"github/chapool/wallet-txengine/internal/wallet/chains/ton"
	"github/chapool/wallet-txengine/internal/wallet/chains/tron"
	"github/chapool/wallet-txengine/internal/wallet/chains/xrp"
	"github/chapool/wallet-txengine/internal/wallet/node"
)

// AddressFunc encodes the account address of a private key on the chain described by cfg.
type AddressFunc func(cfg *chain.Config, privateKey []byte) (string, error)

var addressEncoders = map[chain.Family]AddressFunc{
	chain.FamilyBitcoin:  bitcoin.AccountAddress,
	chain.FamilyEVM:      evm.AccountAddress,
	chain.FamilySolana:   solana.AccountAddress,
	chain.FamilySui:      sui.AccountAddress,
	chain.FamilyAptos:    aptos.AccountAddress,
	chain.FamilyCosmos:   cosmos.AccountAddress,
	chain.FamilyXrp:      xrp.AccountAddress,
	chain.FamilyPolkadot: polkadot.AccountAddress,
	chain.FamilyCardano:  cardano.AccountAddress,
	chain.FamilyTron:     tron.AccountAddress,
	chain.FamilyTon:      ton.AccountAddress,
	chain.FamilyNear:     near.AccountAddress,
	chain.FamilyStellar:  stellar.AccountAddress,
	chain.FamilyAlgorand: algorand.AccountAddress,
}

// AddressEncoders returns the address encoder of every family with a client implementation.
func AddressEncoders() map[chain.Family]AddressFunc {
	out := make(map[chain.Family]AddressFunc, len(addressEncoders))
	for f, fn := range addressEncoders {
		out[f] = fn
	}

	return out
}

type factory struct {
	selector wallet.NodeSelector
	http     *http.Client
	headers  map[chain.Chain]map[string]string
}

type Option func(*factory)

func WithHTTPClient(c *http.Client) Option {
	return func(f *factory) { f.http = c }
}

// WithHeader adds a header to every node request of c, e.g. the Blockfrost project_id or a
// TronGrid API key.
func WithHeader(c chain.Chain, key, value string) Option {
	return func(f *factory) {
		if f.headers[c] == nil {
			f.headers[c] = make(map[string]string)
		}
		f.headers[c][key] = value
	}
}

// Build creates the clients of every configured chain. A chain whose family has no client
// implementation fails the build with ErrMissingCoverage.
func Build(configs []*chain.Config, selector wallet.NodeSelector, opts ...Option) (map[chain.Chain]ChainClients, error) {
	f := &factory{
		selector: selector,
		http:     node.DefaultHTTPClient(),
		headers:  make(map[chain.Chain]map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}

	clients := make(map[chain.Chain]ChainClients, len(configs))
	for _, cfg := range configs {
		client, err := f.client(cfg)
		if err != nil {
			return nil, err
		}
		clients[cfg.Chain] = FromClient(client)
	}

	return clients, nil
}

func (f *factory) rest(c chain.Chain) *node.REST {
	opts := []node.RESTOption{node.WithHTTPClient(f.http)}
	for k, v := range f.headers[c] {
		opts = append(opts, node.WithHeader(k, v))
	}

	return node.NewREST(c, f.selector, opts...)
}

func (f *factory) rpc(c chain.Chain) *node.RPC {
	return node.NewRPC(c, f.selector, f.http)
}

func (f *factory) client(cfg *chain.Config) (any, error) {
	c := cfg.Chain

	switch cfg.Family {
	case chain.FamilyBitcoin:
		return bitcoin.New(cfg, bitcoin.NewBlockbook(f.rest(c)))
	case chain.FamilyEVM:
		return evm.New(cfg, evm.NewNode(f.rpc(c))), nil
	case chain.FamilySolana:
		return solana.New(cfg, solana.NewRPCNode(c, f.selector, f.http)), nil
	case chain.FamilySui:
		return sui.New(cfg, sui.NewRPCNode(f.rpc(c))), nil
	case chain.FamilyAptos:
		return aptos.New(cfg, aptos.NewRESTNode(f.rest(c))), nil
	case chain.FamilyCosmos:
		return cosmos.New(cfg, cosmos.NewRESTNode(f.rest(c))), nil
	case chain.FamilyXrp:
		return xrp.New(cfg, xrp.NewRPCNode(f.rest(c))), nil
	case chain.FamilyPolkadot:
		return polkadot.New(cfg, polkadot.NewSidecarNode(f.rest(c))), nil
	case chain.FamilyCardano:
		return cardano.New(cfg, cardano.NewBlockfrostNode(f.rest(c))), nil
	case chain.FamilyTron:
		return tron.New(cfg, tron.NewRESTNode(f.rest(c))), nil
	case chain.FamilyTon:
		return ton.New(cfg, ton.NewToncenterNode(f.rest(c))), nil
	case chain.FamilyNear:
		return near.New(cfg, near.NewRPCNode(f.rest(c))), nil
	case chain.FamilyStellar:
		return stellar.New(cfg, stellar.NewHorizonNode(f.rest(c))), nil
	case chain.FamilyAlgorand:
		return algorand.New(cfg, algorand.NewAlgodNode(f.rest(c))), nil
	default:
		return nil, errors.Wrapf(ErrMissingCoverage, "%s: no client for family %q", c, cfg.Family)
	}
}
