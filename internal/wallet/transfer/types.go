package transfer

import (
	"context"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// RecentBroadcasts is the number of signed payloads remembered for retried submissions.
const RecentBroadcasts = 256

var (
	ErrInvalidIntent = errors.New("invalid transfer intent")
	ErrEmptySigned   = errors.New("sign client produced no payload")
)

// Service 交易创建服务：预加载、签名、广播并写入本地记录
type Service interface {
	// Quote 返回各优先级的费用报价
	Quote(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error)

	// Prepare fetches everything needed to sign intent.
	Prepare(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error)

	// Submit signs params with the wallet key, broadcasts the payloads in order and stores a
	// Pending record under the hash of the last one. Submitting the same signed payload again
	// returns the stored record.
	Submit(ctx context.Context, params *wallet.SignerParams, priority wallet.FeePriority) (*wallet.Transaction, error)

	// Send 等价于 Prepare 之后 Submit
	Send(ctx context.Context, intent wallet.TransferIntent, priority wallet.FeePriority) (*wallet.Transaction, error)
}
