package application

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/internal/core/ports"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

// KeyringService owns the state of a keyring:
//   - the pair store, holding the (possibly locked) key pairs of the accounts.
//   - the record repository, where accounts and addresses are persisted.
//   - the accounts and addresses registries, observable by subscribers.
//   - the test mode flag, filtering what accounts and addresses are visible.
//
// Operations that mutate pairs or records are serialized, while reads never
// wait for a mutation to complete. A read racing with a mutation of the same
// address sees either the previous or the updated state. Registry listeners
// are notified once the mutation lock is released, so they can call back
// into the service.
type KeyringService struct {
	repoManager ports.RepoManager
	pairStore   domain.PairStore
	cypher      *keypair.Cypher
	keyType     keypair.KeyType
	prefix      uint8

	accounts  *AddressSubject
	addresses *AddressSubject

	isTestMode   bool
	modeLock     *sync.RWMutex
	mutationLock *sync.Mutex

	// staged is guarded by mutationLock, queue and dispatching by queueLock.
	staged      []subjectUpdate
	queue       []subjectUpdate
	dispatching bool
	queueLock   *sync.Mutex

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewKeyringService(
	repoManager ports.RepoManager, pairStore domain.PairStore,
	cypher *keypair.Cypher, keyType keypair.KeyType, prefix uint8,
	isTestMode bool,
) *KeyringService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("keyring: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("keyring: %s", format)
		log.WithError(err).Warnf(format, a...)
	}
	if keyType == "" {
		keyType = keypair.KeyTypeEd25519
	}

	return &KeyringService{
		repoManager:  repoManager,
		pairStore:    pairStore,
		cypher:       cypher,
		keyType:      keyType,
		prefix:       prefix,
		accounts:     NewAddressSubject(AccountsSubject),
		addresses:    NewAddressSubject(AddressesSubject),
		isTestMode:   isTestMode,
		modeLock:     &sync.RWMutex{},
		mutationLock: &sync.Mutex{},
		queueLock:    &sync.Mutex{},
		log:          logFn,
		warn:         warnFn,
	}
}

// LoadAll rebuilds the pair store and the registries from the persisted
// records. Pairs are loaded locked. Corrupt records are skipped, therefore
// only errors of the underlying repository are returned.
func (ks *KeyringService) LoadAll(ctx context.Context) error {
	defer ks.lockMutations()()

	repo := ks.repoManager.RecordRepository()

	var numAccounts, numAddresses int
	if err := repo.ForEach(
		ctx, domain.AccountsNamespace, func(record *domain.Record) error {
			pair, err := domain.NewPairFromRecord(record, ks.cypher)
			if err != nil {
				ks.warn(err, "skipping account %s", record.Address)
				return nil
			}
			ks.addAccount(pair)
			numAccounts++
			return nil
		},
	); err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	if err := repo.ForEach(
		ctx, domain.AddressesNamespace, func(record *domain.Record) error {
			if !keypair.IsValidAddress(record.Address) {
				ks.warn(domain.ErrCorruptRecord, "skipping address %s", record.Address)
				return nil
			}
			ks.setAddress(singleAddressFromRecord(record))
			numAddresses++
			return nil
		},
	); err != nil {
		return fmt.Errorf("failed to load addresses: %w", err)
	}

	ks.log("loaded %d accounts and %d addresses", numAccounts, numAddresses)
	return nil
}

// SetTestMode changes the visibility of the accounts and addresses flagged as
// testing. Nothing is persisted.
func (ks *KeyringService) SetTestMode(isTestMode bool) {
	ks.modeLock.Lock()
	defer ks.modeLock.Unlock()

	ks.isTestMode = isTestMode
}

func (ks *KeyringService) IsTestMode() bool {
	ks.modeLock.RLock()
	defer ks.modeLock.RUnlock()

	return ks.isTestMode
}

// GetPair returns the pair for the given address, regardless of the test mode.
func (ks *KeyringService) GetPair(address string) (*domain.Pair, error) {
	return ks.pairStore.GetPair(address)
}

// GetPairs returns the pairs visible in the current mode.
func (ks *KeyringService) GetPairs() []*domain.Pair {
	isTestMode := ks.IsTestMode()

	pairs := make([]*domain.Pair, 0)
	for _, pair := range ks.pairStore.GetPairs() {
		if isTestMode || !pair.Meta().IsTesting() {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// GetAccounts returns the entries of the accounts registry visible in the
// current mode.
func (ks *KeyringService) GetAccounts() SingleAddresses {
	return ks.filter(ks.accounts.All())
}

// GetAddresses returns the entries of the addresses registry visible in the
// current mode.
func (ks *KeyringService) GetAddresses() SingleAddresses {
	return ks.filter(ks.addresses.All())
}

// IsAvailable returns whether the given address, or the address of the given
// hex public key, is unknown to both registries.
func (ks *KeyringService) IsAvailable(addressOrKey string) bool {
	address, err := keypair.AddressFromAddressOrKey(
		addressOrKey, ks.keyType, ks.prefix,
	)
	if err != nil {
		return false
	}
	return !ks.accounts.Has(address) && !ks.addresses.Has(address)
}

// Accounts returns the observable accounts registry.
func (ks *KeyringService) Accounts() *AddressSubject {
	return ks.accounts
}

// Addresses returns the observable addresses registry.
func (ks *KeyringService) Addresses() *AddressSubject {
	return ks.addresses
}

func (ks *KeyringService) RegisterHandlerForRecordEvent(
	eventType domain.RecordEventType, handler ports.RecordEventHandler,
) {
	ks.repoManager.RegisterHandlerForRecordEvent(eventType, handler)
}

func (ks *KeyringService) filter(entries SingleAddresses) SingleAddresses {
	if ks.IsTestMode() {
		return entries
	}

	filtered := make(SingleAddresses, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsTesting() {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

type subjectUpdate struct {
	subject *AddressSubject
	event   SubjectEvent
}

// lockMutations acquires the mutation lock and returns the func releasing
// it, which then delivers the registry events staged in the meantime.
func (ks *KeyringService) lockMutations() func() {
	ks.mutationLock.Lock()

	return func() {
		ks.queueLock.Lock()
		ks.queue = append(ks.queue, ks.staged...)
		ks.queueLock.Unlock()
		ks.staged = nil

		ks.mutationLock.Unlock()
		ks.dispatch()
	}
}

// dispatch delivers the queued registry events in order. Events queued while
// a delivery is in progress, including those caused by listeners, are left
// to the goroutine already delivering.
func (ks *KeyringService) dispatch() {
	ks.queueLock.Lock()
	if ks.dispatching {
		ks.queueLock.Unlock()
		return
	}
	ks.dispatching = true

	for len(ks.queue) > 0 {
		update := ks.queue[0]
		ks.queue = ks.queue[1:]
		ks.queueLock.Unlock()

		update.subject.notify(update.event)

		ks.queueLock.Lock()
	}
	ks.dispatching = false
	ks.queueLock.Unlock()
}

// The following must be called with the mutation lock held.

func (ks *KeyringService) addAccount(pair *domain.Pair) {
	ks.pairStore.AddPair(pair)
	ks.setAccount(pair)
}

func (ks *KeyringService) setAccount(pair *domain.Pair) {
	ks.stage(ks.accounts, ks.accounts.add(singleAddressFromPair(pair)))
}

func (ks *KeyringService) removeAccount(address string) {
	ks.pairStore.RemovePair(address)
	if event, ok := ks.accounts.remove(address); ok {
		ks.stage(ks.accounts, event)
	}
}

func (ks *KeyringService) setAddress(entry SingleAddress) {
	ks.stage(ks.addresses, ks.addresses.add(entry))
}

func (ks *KeyringService) removeAddress(address string) {
	if event, ok := ks.addresses.remove(address); ok {
		ks.stage(ks.addresses, event)
	}
}

func (ks *KeyringService) stage(subject *AddressSubject, event SubjectEvent) {
	ks.staged = append(ks.staged, subjectUpdate{subject, event})
}

// checkCurrent fails with ErrStalePair if the given pair has been replaced
// in the pair store. Pairs not registered yet are accepted.
func (ks *KeyringService) checkCurrent(pair *domain.Pair) error {
	current, err := ks.pairStore.GetPair(pair.Address())
	if err == nil && current != pair {
		return domain.ErrStalePair
	}
	return nil
}
