package application

import (
	"sort"
	"sync"
)

const (
	AccountsSubject  = "accounts"
	AddressesSubject = "addresses"
)

const (
	SubjectEntryAdded SubjectEventType = iota
	SubjectEntryUpdated
	SubjectEntryRemoved
)

var (
	subjectEventTypeString = map[SubjectEventType]string{
		SubjectEntryAdded:   "SubjectEntryAdded",
		SubjectEntryUpdated: "SubjectEntryUpdated",
		SubjectEntryRemoved: "SubjectEntryRemoved",
	}
)

type SubjectEventType int

func (t SubjectEventType) String() string {
	return subjectEventTypeString[t]
}

// SubjectEvent notifies a change of a single entry of an AddressSubject.
type SubjectEvent struct {
	EventType SubjectEventType
	Subject   string
	Entry     SingleAddress
}

type SubjectListener func(event SubjectEvent)

// AddressSubject is an observable mapping from address to SingleAddress.
// Listeners are called synchronously, in subscription order, after every
// change is applied.
type AddressSubject struct {
	name      string
	entries   map[string]SingleAddress
	listeners map[int]SubjectListener
	nextID    int

	lock         *sync.RWMutex
	listenerLock *sync.RWMutex
}

func NewAddressSubject(name string) *AddressSubject {
	return &AddressSubject{
		name:         name,
		entries:      make(map[string]SingleAddress),
		listeners:    make(map[int]SubjectListener),
		lock:         &sync.RWMutex{},
		listenerLock: &sync.RWMutex{},
	}
}

func (s *AddressSubject) Name() string {
	return s.name
}

// Add inserts or replaces the entry with the same address.
func (s *AddressSubject) Add(entry SingleAddress) {
	s.notify(s.add(entry))
}

// Remove deletes the entry for the given address, if existing.
func (s *AddressSubject) Remove(address string) {
	if event, ok := s.remove(address); ok {
		s.notify(event)
	}
}

func (s *AddressSubject) Get(address string) (SingleAddress, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	entry, ok := s.entries[address]
	if !ok {
		return SingleAddress{}, false
	}
	return copyEntry(entry), true
}

func (s *AddressSubject) Has(address string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.entries[address]
	return ok
}

// All returns every entry sorted by address.
func (s *AddressSubject) All() SingleAddresses {
	s.lock.RLock()
	entries := make(SingleAddresses, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, copyEntry(entry))
	}
	s.lock.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Address < entries[j].Address
	})
	return entries
}

func (s *AddressSubject) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.entries)
}

// Subscribe registers the given listener and returns the func to
// unregister it.
func (s *AddressSubject) Subscribe(listener SubjectListener) func() {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	return func() {
		s.listenerLock.Lock()
		defer s.listenerLock.Unlock()

		delete(s.listeners, id)
	}
}

func (s *AddressSubject) notify(event SubjectEvent) {
	s.listenerLock.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]SubjectListener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.listenerLock.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// add applies the change without notifying it.
func (s *AddressSubject) add(entry SingleAddress) SubjectEvent {
	s.lock.Lock()
	defer s.lock.Unlock()

	eventType := SubjectEntryAdded
	if _, exists := s.entries[entry.Address]; exists {
		eventType = SubjectEntryUpdated
	}
	s.entries[entry.Address] = copyEntry(entry)
	return SubjectEvent{eventType, s.name, copyEntry(entry)}
}

func (s *AddressSubject) remove(address string) (SubjectEvent, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, exists := s.entries[address]
	if !exists {
		return SubjectEvent{}, false
	}
	delete(s.entries, address)
	return SubjectEvent{SubjectEntryRemoved, s.name, entry}, true
}

func copyEntry(entry SingleAddress) SingleAddress {
	cp := entry
	cp.PublicKey = append([]byte(nil), entry.PublicKey...)
	cp.Meta = entry.Meta.Copy()
	return cp
}
