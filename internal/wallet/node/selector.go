package node

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/wallet-txengine/internal/wallet/chain"
)

var ErrNoEndpoints = errors.New("no node endpoints configured")

const DefaultFailureCooldown = 30 * time.Second

// Selector 按链选择节点：优先使用当前节点，失败后切换到下一个，失败节点在冷却期内被跳过
type Selector struct {
	mu        sync.Mutex
	endpoints map[chain.Chain][]string
	current   map[chain.Chain]int
	failedAt  map[string]time.Time
	cooldown  time.Duration
	now       func() time.Time
}

type SelectorOption func(*Selector)

func WithCooldown(d time.Duration) SelectorOption {
	return func(s *Selector) { s.cooldown = d }
}

func WithClock(now func() time.Time) SelectorOption {
	return func(s *Selector) { s.now = now }
}

// NewSelector creates a selector over static endpoint lists.
func NewSelector(endpoints map[chain.Chain][]string, opts ...SelectorOption) *Selector {
	s := &Selector{
		endpoints: make(map[chain.Chain][]string, len(endpoints)),
		current:   make(map[chain.Chain]int),
		failedAt:  make(map[string]time.Time),
		cooldown:  DefaultFailureCooldown,
		now:       time.Now,
	}

	for c, urls := range endpoints {
		s.endpoints[c] = append([]string(nil), urls...)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Endpoints returns the configured endpoints of c in preference order.
func (s *Selector) Endpoints(c chain.Chain) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.endpoints[c]...)
}

// Select returns the first endpoint of c, starting at the current one, that is not cooling
// down after a failure. When every endpoint failed recently the current one is returned anyway.
func (s *Selector) Select(c chain.Chain) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := s.endpoints[c]
	if len(urls) == 0 {
		return "", errors.Wrapf(ErrNoEndpoints, "chain %s", c)
	}

	now := s.now()
	start := s.current[c]
	for i := range urls {
		idx := (start + i) % len(urls)
		failed, ok := s.failedAt[urls[idx]]
		if !ok || now.Sub(failed) >= s.cooldown {
			s.current[c] = idx
			return urls[idx], nil
		}
	}

	return urls[start%len(urls)], nil
}

// ReportFailure marks url as failed and moves c to the next endpoint.
func (s *Selector) ReportFailure(c chain.Chain, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failedAt[url] = s.now()

	urls := s.endpoints[c]
	if len(urls) > 1 && urls[s.current[c]%len(urls)] == url {
		s.current[c] = (s.current[c] + 1) % len(urls)
	}

	log.Warn().Str("chain", c.String()).Str("url", url).Msg("Node endpoint marked as failed")
}
