package registry

import (
	"sort"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

type registry struct {
	clients map[chain.Chain]ChainClients
	chains  []chain.Chain
}

// FromClient fills every role that client implements. Chain packages implement all five on a
// single Client type.
func FromClient(client any) ChainClients {
	var clients ChainClients

	clients.Preloader, _ = client.(wallet.SignerPreloader)
	clients.Fees, _ = client.(wallet.FeeCalculator)
	clients.Signer, _ = client.(wallet.SignClient)
	clients.Broadcaster, _ = client.(wallet.BroadcastClient)
	clients.Status, _ = client.(wallet.TransactionStatusClient)

	return clients
}

// NewRegistry validates that every chain has preload, fee, sign and broadcast coverage.
//
//nolint:ireturn
func NewRegistry(clients map[chain.Chain]ChainClients) (Registry, error) {
	r := &registry{clients: make(map[chain.Chain]ChainClients, len(clients))}

	for c, roles := range clients {
		switch {
		case roles.Preloader == nil:
			return nil, errors.Wrapf(ErrMissingCoverage, "%s: preloader", c)
		case roles.Fees == nil:
			return nil, errors.Wrapf(ErrMissingCoverage, "%s: fee calculator", c)
		case roles.Signer == nil:
			return nil, errors.Wrapf(ErrMissingCoverage, "%s: sign client", c)
		case roles.Broadcaster == nil:
			return nil, errors.Wrapf(ErrMissingCoverage, "%s: broadcast client", c)
		}

		r.clients[c] = roles
		r.chains = append(r.chains, c)
	}

	sort.Slice(r.chains, func(i, j int) bool { return r.chains[i] < r.chains[j] })

	return r, nil
}

func (r *registry) Chains() []chain.Chain {
	return append([]chain.Chain(nil), r.chains...)
}

func (r *registry) lookup(c chain.Chain) (ChainClients, error) {
	roles, ok := r.clients[c]
	if !ok {
		return ChainClients{}, errors.Wrapf(wallet.ErrUnsupportedChain, "%s", c)
	}

	return roles, nil
}

//nolint:ireturn
func (r *registry) Preloader(c chain.Chain) (wallet.SignerPreloader, error) {
	roles, err := r.lookup(c)
	return roles.Preloader, err
}

//nolint:ireturn
func (r *registry) FeeCalculator(c chain.Chain) (wallet.FeeCalculator, error) {
	roles, err := r.lookup(c)
	return roles.Fees, err
}

//nolint:ireturn
func (r *registry) Signer(c chain.Chain) (wallet.SignClient, error) {
	roles, err := r.lookup(c)
	return roles.Signer, err
}

//nolint:ireturn
func (r *registry) Broadcaster(c chain.Chain) (wallet.BroadcastClient, error) {
	roles, err := r.lookup(c)
	return roles.Broadcaster, err
}

//nolint:ireturn
func (r *registry) StatusClient(c chain.Chain) (wallet.TransactionStatusClient, bool) {
	roles, ok := r.clients[c]
	if !ok || roles.Status == nil {
		return nil, false
	}

	return roles.Status, true
}

func (r *registry) MissingStatusCoverage() []chain.Chain {
	var missing []chain.Chain
	for _, c := range r.chains {
		if r.clients[c].Status == nil {
			missing = append(missing, c)
		}
	}

	return missing
}
