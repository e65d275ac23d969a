package reconcile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// DefaultInterval is the pause between the end of one cycle and the start of the next.
const DefaultInterval = 10 * time.Second

var ErrAlreadyStarted = errors.New("reconciler already started")

type Reason string

const (
	ReasonStatus     Reason = "status"
	ReasonHashChange Reason = "hash_change"
	// ReasonTimeout marks a transaction failed locally after its chain timeout. The chain may
	// still confirm it later; the record stays Failed.
	ReasonTimeout Reason = "timeout"
)

// Change is one transition applied to a stored record.
type Change struct {
	Transaction *wallet.Transaction
	Previous    wallet.TransactionState
	// OldID is set when the record moved to a new identifier.
	OldID  string
	Reason Reason
}

// Notifier receives every applied change exactly once.
type Notifier interface {
	TransactionChanged(ctx context.Context, change Change)
}

type NotifierFunc func(ctx context.Context, change Change)

func (f NotifierFunc) TransactionChanged(ctx context.Context, change Change) {
	f(ctx, change)
}

// Service 交易对账服务：周期性查询 Pending 交易的链上状态并更新本地记录
type Service interface {
	// Start 启动后台循环，每轮结束后等待一个间隔再开始下一轮
	Start(ctx context.Context) error

	// Stop 停止后台循环并等待当前轮次退出
	Stop()

	// RunOnce runs a single cycle synchronously. Status errors are swallowed; only a failure to
	// read the pending records is returned.
	RunOnce(ctx context.Context) error
}
