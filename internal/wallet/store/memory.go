package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

type memoryStore struct {
	mu  sync.RWMutex
	txs map[string]*wallet.Transaction
	hub *hub
}

// NewMemory creates a process local store. Records are copied in and out.
//
//nolint:ireturn
func NewMemory() Store {
	s := &memoryStore{txs: make(map[string]*wallet.Transaction)}
	s.hub = newHub(s.Query)

	return s
}

func (s *memoryStore) Insert(ctx context.Context, tx *wallet.Transaction) error {
	s.mu.Lock()
	if _, ok := s.txs[tx.ID]; ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrDuplicate, "%s", tx.ID)
	}
	s.txs[tx.ID] = tx.Clone()
	s.mu.Unlock()

	s.hub.publish(ctx)

	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txs[id]
	if !ok {
		return nil, errors.Wrapf(wallet.ErrNotFound, "transaction %s", id)
	}

	return tx.Clone(), nil
}

func (s *memoryStore) Update(ctx context.Context, tx *wallet.Transaction) error {
	s.mu.Lock()
	current, ok := s.txs[tx.ID]
	switch {
	case !ok:
		s.mu.Unlock()
		return errors.Wrapf(wallet.ErrNotFound, "transaction %s", tx.ID)
	case current.State.IsTerminal():
		s.mu.Unlock()
		return errors.Wrapf(ErrTerminalState, "%s is %s", tx.ID, current.State)
	}
	s.txs[tx.ID] = tx.Clone()
	s.mu.Unlock()

	s.hub.publish(ctx)

	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.txs[id]; !ok {
		s.mu.Unlock()
		return errors.Wrapf(wallet.ErrNotFound, "transaction %s", id)
	}
	delete(s.txs, id)
	s.mu.Unlock()

	s.hub.publish(ctx)

	return nil
}

func (s *memoryStore) Replace(ctx context.Context, oldID string, tx *wallet.Transaction) error {
	s.mu.Lock()
	current, ok := s.txs[oldID]
	switch {
	case !ok:
		s.mu.Unlock()
		return errors.Wrapf(wallet.ErrNotFound, "transaction %s", oldID)
	case current.State.IsTerminal():
		s.mu.Unlock()
		return errors.Wrapf(ErrTerminalState, "%s is %s", oldID, current.State)
	}
	if _, exists := s.txs[tx.ID]; exists && tx.ID != oldID {
		s.mu.Unlock()
		return errors.Wrapf(ErrDuplicate, "%s", tx.ID)
	}

	replacement := tx.Clone()
	if replacement.Swap == nil && current.Swap != nil {
		swap := *current.Swap
		replacement.Swap = &swap
	}

	delete(s.txs, oldID)
	s.txs[tx.ID] = replacement
	s.mu.Unlock()

	s.hub.publish(ctx)

	return nil
}

func (s *memoryStore) Query(_ context.Context, f Filter) ([]*wallet.Transaction, error) {
	s.mu.RLock()
	result := make([]*wallet.Transaction, 0)
	for _, tx := range s.txs {
		if f.Match(tx) {
			result = append(result, tx.Clone())
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(result)
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}

	return result, nil
}

func (s *memoryStore) Subscribe(ctx context.Context, f Filter) (<-chan []*wallet.Transaction, error) {
	return s.hub.subscribe(ctx, f)
}

func sortNewestFirst(txs []*wallet.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].CreatedAt != txs[j].CreatedAt {
			return txs[i].CreatedAt > txs[j].CreatedAt
		}
		return txs[i].ID < txs[j].ID
	})
}
