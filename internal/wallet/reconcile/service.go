package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/metrics"
	"github/chapool/wallet-txengine/internal/util"
	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/registry"
	"github/chapool/wallet-txengine/internal/wallet/store"
)

const defaultConcurrency = 32

type service struct {
	store    store.Store
	registry registry.Registry
	chains   chain.Service

	interval    time.Duration
	concurrency int
	now         func() time.Time
	notifier    Notifier
	metrics     *metrics.ReconcileMetrics
	log         zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*service)

func WithInterval(d time.Duration) Option {
	return func(s *service) { s.interval = d }
}

// WithClock replaces time.Now for age computations.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *service) { s.notifier = n }
}

func WithMetrics(m *metrics.ReconcileMetrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithConcurrency bounds the number of status queries in flight.
func WithConcurrency(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a reconciler over the pending records of st.
//
//nolint:ireturn
func NewService(st store.Store, reg registry.Registry, chains chain.Service, opts ...Option) Service {
	s := &service{
		store:       st,
		registry:    reg,
		chains:      chains,
		interval:    DefaultInterval,
		concurrency: defaultConcurrency,
		now:         time.Now,
		notifier:    NotifierFunc(func(context.Context, Change) {}),
		log:         util.ComponentLogger("reconciler"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = metrics.NewReconcileMetrics(prometheus.NewRegistry())
	}

	return s
}

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.loop(ctx, done)

	return nil
}

func (s *service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// loop sleeps after each cycle, so a slow cycle delays the next one instead of overlapping it.
func (s *service) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.log.Info().Dur("interval", s.interval).Msg("Starting transaction reconciler")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Transaction reconciler stopped")
			return
		case <-timer.C:
		}

		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("Reconciliation cycle failed")
		}

		timer.Reset(s.interval)
	}
}

func (s *service) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		s.metrics.Cycles.Inc()
		s.metrics.CycleSeconds.Observe(time.Since(start).Seconds())
	}()

	pending, err := s.store.Query(ctx, store.Pending())
	if err != nil {
		return errors.Wrap(err, "failed to load pending transactions")
	}

	s.recordPending(pending)

	now := s.now()

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, tx := range pending {
		g.Go(func() error {
			s.reconcile(ctx, tx, now)
			return nil
		})
	}

	return g.Wait()
}

func (s *service) recordPending(pending []*wallet.Transaction) {
	counts := make(map[chain.Chain]int)
	for _, tx := range pending {
		counts[tx.Chain()]++
	}

	s.metrics.Pending.Reset()
	for c, n := range counts {
		s.metrics.Pending.WithLabelValues(c.String()).Set(float64(n))
	}
}

func (s *service) timeout(c chain.Chain) time.Duration {
	cfg, err := s.chains.GetChain(c)
	if err != nil {
		return 0
	}

	return cfg.TransactionTimeout
}

func (s *service) reconcile(ctx context.Context, tx *wallet.Transaction, now time.Time) {
	l := s.log.With().Str("chain", tx.Chain().String()).Str("tx_id", tx.ID).Logger()

	client, ok := s.registry.StatusClient(tx.Chain())
	if !ok {
		// no authority to consult, the record stays pending
		return
	}

	if timeout := s.timeout(tx.Chain()); timeout > 0 && tx.Age(now) >= timeout {
		updated := tx.Clone()
		updated.State = wallet.TransactionStateFailed

		if s.update(ctx, l, tx, updated, ReasonTimeout) {
			s.metrics.Timeouts.WithLabelValues(tx.Chain().String()).Inc()
			l.Warn().Dur("timeout", timeout).Msg("Transaction presumed failed after chain timeout")
		}
		return
	}

	result, err := client.GetStatus(ctx, wallet.StatusRequest{
		Chain:       tx.Chain(),
		Hash:        tx.Hash,
		Sender:      tx.Owner,
		BlockNumber: tx.BlockNumber,
	})
	if err != nil {
		s.metrics.StatusErrors.WithLabelValues(tx.Chain().String()).Inc()
		l.Debug().Err(err).Msg("Status query failed, retrying next cycle")
		return
	}

	updated := tx.Clone()
	updated.State = result.State
	if result.Fee != nil {
		updated.Fee = result.Fee.String()
	}

	if change := result.HashChange; change != nil && change.New != "" && change.New != tx.Hash {
		updated.Hash = change.New
		updated.ID = wallet.TransactionID(tx.Chain(), change.New)

		if err := s.store.Replace(ctx, tx.ID, updated); err != nil {
			l.Error().Err(err).Str("new_hash", change.New).Msg("Failed to migrate transaction to new hash")
			return
		}

		l.Info().Str("old_hash", tx.Hash).Str("new_hash", change.New).Str("state", string(updated.State)).Msg("Transaction hash changed")
		s.metrics.Transitions.WithLabelValues(tx.Chain().String(), string(updated.State)).Inc()
		s.notifier.TransactionChanged(ctx, Change{Transaction: updated, Previous: tx.State, OldID: tx.ID, Reason: ReasonHashChange})

		return
	}

	if result.State == tx.State {
		return
	}

	s.update(ctx, l, tx, updated, ReasonStatus)
}

// update persists a state transition and notifies about it. It reports false when the store
// refused the write.
func (s *service) update(ctx context.Context, l zerolog.Logger, tx, updated *wallet.Transaction, reason Reason) bool {
	if err := s.store.Update(ctx, updated); err != nil {
		if errors.Is(err, store.ErrTerminalState) || errors.Is(err, wallet.ErrNotFound) {
			l.Debug().Err(err).Msg("Transaction changed concurrently, skipping")
			return false
		}

		l.Error().Err(err).Msg("Failed to update transaction state")
		return false
	}

	l.Info().Str("state", string(updated.State)).Str("reason", string(reason)).Msg("Transaction state changed")
	s.metrics.Transitions.WithLabelValues(tx.Chain().String(), string(updated.State)).Inc()
	s.notifier.TransactionChanged(ctx, Change{Transaction: updated, Previous: tx.State, Reason: reason})

	return true
}
