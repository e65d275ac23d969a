package registry

import (
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

var ErrMissingCoverage = errors.New("chain is missing a required client role")

// ChainClients is the role set of one chain. Every role except Status is required.
type ChainClients struct {
	Preloader   wallet.SignerPreloader
	Fees        wallet.FeeCalculator
	Signer      wallet.SignClient
	Broadcaster wallet.BroadcastClient
	Status      wallet.TransactionStatusClient
}

// Registry 按链解析五种交易角色。构造时校验完整性，运行时不再线性查找
type Registry interface {
	// Chains 返回已注册的链
	Chains() []chain.Chain

	Preloader(c chain.Chain) (wallet.SignerPreloader, error)
	FeeCalculator(c chain.Chain) (wallet.FeeCalculator, error)
	Signer(c chain.Chain) (wallet.SignClient, error)
	Broadcaster(c chain.Chain) (wallet.BroadcastClient, error)

	// StatusClient reports false for chains without status coverage. Their records stay
	// pending and are never timed out.
	StatusClient(c chain.Chain) (wallet.TransactionStatusClient, bool)

	// MissingStatusCoverage 返回没有状态客户端的已注册链
	MissingStatusCoverage() []chain.Chain
}
