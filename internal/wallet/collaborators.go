package wallet

import (
	"context"

	"github/chapool/wallet-txengine/internal/wallet/chain"
)

// KeyVault 按钱包和链派生密钥。调用方使用完私钥后必须清零
type KeyVault interface {
	DerivePrivateKey(ctx context.Context, walletID string, c chain.Chain) ([]byte, error)
	DerivePublicAccount(ctx context.Context, walletID string, c chain.Chain) (string, error)
}

// NodeSelector picks the RPC endpoint for a chain and learns from failures.
type NodeSelector interface {
	Endpoints(c chain.Chain) []string
	Select(c chain.Chain) (string, error)
	ReportFailure(c chain.Chain, url string)
}
