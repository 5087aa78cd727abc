package inmemory

import (
	"context"
	"sync"

	"github.com/vulpemventures/keyring/internal/core/domain"
)

type recordInmemoryStore struct {
	recordsByNamespace map[string]map[string]domain.Record
	lock               *sync.RWMutex
}

type recordRepository struct {
	store            *recordInmemoryStore
	chEvents         chan domain.RecordEvent
	externalChEvents chan domain.RecordEvent
	chLock           *sync.Mutex
	closed           bool
}

func NewRecordRepository() domain.RecordRepository {
	return newRecordRepository()
}

func newRecordRepository() *recordRepository {
	return &recordRepository{
		store: &recordInmemoryStore{
			recordsByNamespace: newRecordsByNamespace(),
			lock:               &sync.RWMutex{},
		},
		chEvents:         make(chan domain.RecordEvent),
		externalChEvents: make(chan domain.RecordEvent),
		chLock:           &sync.Mutex{},
	}
}

func (r *recordRepository) GetRecord(
	_ context.Context, namespace, address string,
) (*domain.Record, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	records, ok := r.store.recordsByNamespace[namespace]
	if !ok {
		return nil, domain.ErrUnknownNamespace
	}
	record, ok := records[address]
	if !ok {
		return nil, nil
	}
	return copyRecord(record), nil
}

func (r *recordRepository) SetRecord(
	_ context.Context, record *domain.Record,
) error {
	if err := domain.ValidateRecord(record); err != nil {
		return err
	}

	r.store.lock.Lock()
	r.store.recordsByNamespace[record.Namespace][record.Address] = *copyRecord(*record)
	r.store.lock.Unlock()

	go r.publishEvent(domain.RecordEvent{
		EventType: domain.RecordSet,
		Namespace: record.Namespace,
		Address:   record.Address,
	})

	return nil
}

func (r *recordRepository) RemoveRecord(
	_ context.Context, namespace, address string,
) error {
	r.store.lock.Lock()
	records, ok := r.store.recordsByNamespace[namespace]
	if !ok {
		r.store.lock.Unlock()
		return domain.ErrUnknownNamespace
	}
	_, found := records[address]
	delete(records, address)
	r.store.lock.Unlock()

	if found {
		go r.publishEvent(domain.RecordEvent{
			EventType: domain.RecordRemoved,
			Namespace: namespace,
			Address:   address,
		})
	}

	return nil
}

func (r *recordRepository) ForEach(
	_ context.Context, namespace string, fn func(*domain.Record) error,
) error {
	r.store.lock.RLock()
	records, ok := r.store.recordsByNamespace[namespace]
	if !ok {
		r.store.lock.RUnlock()
		return domain.ErrUnknownNamespace
	}
	list := make([]*domain.Record, 0, len(records))
	for _, record := range records {
		list = append(list, copyRecord(record))
	}
	r.store.lock.RUnlock()

	for _, record := range list {
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

func (r *recordRepository) GetEventChannel() chan domain.RecordEvent {
	return r.externalChEvents
}

func (r *recordRepository) publishEvent(event domain.RecordEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	if r.closed {
		return
	}

	r.chEvents <- event
	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *recordRepository) reset() {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	r.store.recordsByNamespace = newRecordsByNamespace()
}

func (r *recordRepository) close() {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.chEvents)
	close(r.externalChEvents)
}

func newRecordsByNamespace() map[string]map[string]domain.Record {
	m := make(map[string]map[string]domain.Record)
	for _, ns := range domain.Namespaces {
		m[ns] = make(map[string]domain.Record)
	}
	return m
}

func copyRecord(record domain.Record) *domain.Record {
	cp := record
	cp.PublicKey = append([]byte(nil), record.PublicKey...)
	cp.Encoded = append([]byte(nil), record.Encoded...)
	cp.Encoding.Content = append([]string(nil), record.Encoding.Content...)
	cp.Meta = record.Meta.Copy()
	return &cp
}
