package wallet

import (
	"context"
	"math/big"

	"github/chapool/wallet-txengine/internal/wallet/chain"
)

// SignerPreloader 在签名前从链上拉取签名所需的全部数据
type SignerPreloader interface {
	Preload(ctx context.Context, intent TransferIntent) (*SignerParams, error)
}

// FeeCalculator 计算一笔意图的费用报价
type FeeCalculator interface {
	CalculateFees(ctx context.Context, intent TransferIntent) ([]Fee, error)
}

// SignClient 离线签名，不访问网络。同一输入必须产生相同输出
type SignClient interface {
	Sign(ctx context.Context, params *SignerParams, privateKey []byte, priority FeePriority) ([][]byte, error)
}

// BroadcastClient 广播已签名交易并返回链上哈希
type BroadcastClient interface {
	Send(ctx context.Context, signed []byte) (string, error)
}

// TransactionStatusClient 查询交易状态
type TransactionStatusClient interface {
	GetStatus(ctx context.Context, req StatusRequest) (*StatusResult, error)
}

// StatusRequest identifies a broadcast transaction. BlockNumber is the chain's block height at
// broadcast time when the chain needs a scan starting point.
type StatusRequest struct {
	Chain       chain.Chain
	Hash        string
	Sender      string
	BlockNumber string
}

// HashChange reports that the chain now knows the transaction under a different hash.
type HashChange struct {
	Old string
	New string
}

// StatusResult is the observed state. Fee is nil when the chain did not report one.
type StatusResult struct {
	State      TransactionState
	Fee        *big.Int
	HashChange *HashChange
}

func PendingStatus() *StatusResult {
	return &StatusResult{State: TransactionStatePending}
}
