package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github/chapool/wallet-txengine/internal/util"
	"github/chapool/wallet-txengine/internal/wallet"
)

type queryFunc func(ctx context.Context, f Filter) ([]*wallet.Transaction, error)

type subscription struct {
	filter Filter
	ch     chan []*wallet.Transaction
}

// hub fans store changes out to live queries.
type hub struct {
	query queryFunc
	log   zerolog.Logger

	// publishing serializes publishes so results are delivered in write order
	publishing sync.Mutex

	mu   sync.Mutex
	subs map[uuid.UUID]*subscription
}

func newHub(query queryFunc) *hub {
	return &hub{
		query: query,
		log:   util.ComponentLogger("store"),
		subs:  make(map[uuid.UUID]*subscription),
	}
}

func (h *hub) subscribe(ctx context.Context, f Filter) (<-chan []*wallet.Transaction, error) {
	initial, err := h.query(ctx, f)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	sub := &subscription{filter: f, ch: make(chan []*wallet.Transaction, 1)}
	sub.ch <- initial

	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()

	go func() {
		<-ctx.Done()

		h.mu.Lock()
		delete(h.subs, id)
		close(sub.ch)
		h.mu.Unlock()
	}()

	return sub.ch, nil
}

// publish re-runs every live query and replaces any undelivered result with the new one.
func (h *hub) publish(ctx context.Context) {
	h.publishing.Lock()
	defer h.publishing.Unlock()

	h.mu.Lock()
	subs := make(map[uuid.UUID]*subscription, len(h.subs))
	for id, sub := range h.subs {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		result, err := h.query(context.WithoutCancel(ctx), sub.filter)
		if err != nil {
			h.log.Error().Err(err).Str("subscription", id.String()).Msg("Failed to refresh live query")
			continue
		}

		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- result
		}
		h.mu.Unlock()
	}
}
