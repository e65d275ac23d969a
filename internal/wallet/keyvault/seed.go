package keyvault

import "sync"

// seeds holds unlocked BIP39 seeds per wallet with thread-safe access.
type seeds struct {
	mu    sync.RWMutex
	seeds map[string][]byte
}

func newSeeds() *seeds {
	return &seeds{seeds: make(map[string][]byte)}
}

func (s *seeds) set(walletID string, seed []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.seeds[walletID]; ok {
		zero(old)
	}
	s.seeds[walletID] = seed
}

// get returns a copy; the caller must zero it.
func (s *seeds) get(walletID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seed, ok := s.seeds[walletID]
	if !ok {
		return nil, false
	}

	seedCopy := make([]byte, len(seed))
	copy(seedCopy, seed)

	return seedCopy, true
}

func (s *seeds) clear(walletID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seed, ok := s.seeds[walletID]; ok {
		zero(seed)
		delete(s.seeds, walletID)
	}
}

func (s *seeds) ids() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.seeds))
	for id := range s.seeds {
		ids = append(ids, id)
	}

	return ids
}
