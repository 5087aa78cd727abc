package domain

// PairStore defines the methods an in-memory table of pairs, keyed by
// address, must implement.
type PairStore interface {
	// GetPair returns the pair for the given address or ErrPairNotFound.
	GetPair(address string) (*Pair, error)
	// GetPairs returns all pairs, regardless of their meta.
	GetPairs() []*Pair
	// AddPair inserts or replaces the pair with the same address. A replaced
	// pair is destroyed.
	AddPair(pair *Pair)
	// RemovePair deletes the pair for the given address and wipes its secret
	// material. It is a no-op for unknown addresses.
	RemovePair(address string)
}
