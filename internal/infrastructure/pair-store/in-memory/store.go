package pair_store

import (
	"sync"

	"github.com/vulpemventures/keyring/internal/core/domain"
)

type pairInMemoryStore struct {
	pairs map[string]*domain.Pair
	lock  *sync.RWMutex
}

func NewInMemoryPairStore() domain.PairStore {
	return &pairInMemoryStore{
		pairs: make(map[string]*domain.Pair),
		lock:  &sync.RWMutex{},
	}
}

func (s *pairInMemoryStore) GetPair(address string) (*domain.Pair, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	pair, ok := s.pairs[address]
	if !ok {
		return nil, domain.ErrPairNotFound
	}
	return pair, nil
}

func (s *pairInMemoryStore) GetPairs() []*domain.Pair {
	s.lock.RLock()
	defer s.lock.RUnlock()

	pairs := make([]*domain.Pair, 0, len(s.pairs))
	for _, pair := range s.pairs {
		pairs = append(pairs, pair)
	}
	return pairs
}

func (s *pairInMemoryStore) AddPair(pair *domain.Pair) {
	s.lock.Lock()
	defer s.lock.Unlock()

	prev, ok := s.pairs[pair.Address()]
	s.pairs[pair.Address()] = pair
	if ok && prev != pair {
		prev.Destroy()
	}
}

func (s *pairInMemoryStore) RemovePair(address string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if pair, ok := s.pairs[address]; ok {
		pair.Destroy()
		delete(s.pairs, address)
	}
}
