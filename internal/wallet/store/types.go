package store

import (
	"context"
	"slices"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

var (
	ErrDuplicate     = errors.New("transaction already exists")
	ErrTerminalState = errors.New("transaction is in a terminal state")
)

// Filter selects transaction records. Zero fields match everything.
type Filter struct {
	States []wallet.TransactionState
	Chains []chain.Chain
	Owner  string
	Limit  int
}

// Pending selects every record still waiting for the chain.
func Pending() Filter {
	return Filter{States: []wallet.TransactionState{wallet.TransactionStatePending}}
}

// Match reports whether tx is selected by f, ignoring Limit.
func (f Filter) Match(tx *wallet.Transaction) bool {
	if len(f.States) > 0 && !slices.Contains(f.States, tx.State) {
		return false
	}
	if len(f.Chains) > 0 && !slices.Contains(f.Chains, tx.Chain()) {
		return false
	}
	if f.Owner != "" && f.Owner != tx.Owner {
		return false
	}

	return true
}

// Store 本地交易记录存储。记录按 ID 分区，Replace 以单个原子操作完成哈希迁移
type Store interface {
	// Insert 插入新记录，ID 已存在时返回 ErrDuplicate
	Insert(ctx context.Context, tx *wallet.Transaction) error

	// Get 按 ID 查询，不存在时返回 wallet.ErrNotFound
	Get(ctx context.Context, id string) (*wallet.Transaction, error)

	// Update 覆盖记录的可变字段。终态记录不可修改
	Update(ctx context.Context, tx *wallet.Transaction) error

	Delete(ctx context.Context, id string) error

	// Replace deletes oldID and inserts tx under tx.ID in one atomic step, carrying the swap
	// side row along.
	Replace(ctx context.Context, oldID string, tx *wallet.Transaction) error

	// Query returns matching records, newest first.
	Query(ctx context.Context, f Filter) ([]*wallet.Transaction, error)

	// Subscribe delivers the current result of f and a fresh result after every change, until
	// ctx is done. Slow readers only ever see the latest result.
	Subscribe(ctx context.Context, f Filter) (<-chan []*wallet.Transaction, error)
}
