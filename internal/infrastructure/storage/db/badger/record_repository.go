package dbbadger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

// recordDTO is the badgerhold representation of a domain.Record. Meta is kept
// as json since gob can't encode arbitrary interface values.
type recordDTO struct {
	Namespace string
	Address   string
	PublicKey []byte
	KeyType   string
	Encoded   []byte
	Encoding  keypair.Encoding
	Meta      []byte
}

type recordRepository struct {
	store            *badgerhold.Store
	chEvents         chan domain.RecordEvent
	externalChEvents chan domain.RecordEvent
	lock             *sync.Mutex
	closed           bool

	log func(format string, a ...interface{})
}

func NewRecordRepository(store *badgerhold.Store) domain.RecordRepository {
	return newRecordRepository(store)
}

func newRecordRepository(store *badgerhold.Store) *recordRepository {
	chEvents := make(chan domain.RecordEvent, 10)
	externalChEvents := make(chan domain.RecordEvent, 10)
	lock := &sync.Mutex{}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("record repository: %s", format)
		log.Debugf(format, a...)
	}
	return &recordRepository{
		store:            store,
		chEvents:         chEvents,
		externalChEvents: externalChEvents,
		lock:             lock,
		log:              logFn,
	}
}

func (r *recordRepository) GetRecord(
	_ context.Context, namespace, address string,
) (*domain.Record, error) {
	if !domain.IsKnownNamespace(namespace) {
		return nil, domain.ErrUnknownNamespace
	}

	var dto recordDTO
	if err := r.store.Get(recordKey(namespace, address), &dto); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return dto.toDomain()
}

func (r *recordRepository) SetRecord(
	_ context.Context, record *domain.Record,
) error {
	if err := domain.ValidateRecord(record); err != nil {
		return err
	}

	dto, err := newRecordDTO(record)
	if err != nil {
		return err
	}
	if err := r.store.Upsert(
		recordKey(record.Namespace, record.Address), *dto,
	); err != nil {
		return err
	}

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
	if !domain.IsKnownNamespace(namespace) {
		return domain.ErrUnknownNamespace
	}

	if err := r.store.Delete(
		recordKey(namespace, address), recordDTO{},
	); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}

	go r.publishEvent(domain.RecordEvent{
		EventType: domain.RecordRemoved,
		Namespace: namespace,
		Address:   address,
	})

	return nil
}

func (r *recordRepository) ForEach(
	_ context.Context, namespace string, fn func(*domain.Record) error,
) error {
	if !domain.IsKnownNamespace(namespace) {
		return domain.ErrUnknownNamespace
	}

	var dtos []recordDTO
	query := badgerhold.Where("Namespace").Eq(namespace)
	if err := r.store.Find(&dtos, query); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}

	for _, dto := range dtos {
		record, err := dto.toDomain()
		if err != nil {
			r.log("skipping record %s: %s", dto.Address, err)
			continue
		}
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
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}

	r.log("publish event %s", event.EventType)
	r.chEvents <- event

	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *recordRepository) reset() {
	if err := r.store.Badger().DropAll(); err != nil {
		r.log("failed to reset store: %s", err)
	}
}

func (r *recordRepository) close() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.store.Close()
	close(r.chEvents)
	close(r.externalChEvents)
}

func newRecordDTO(record *domain.Record) (*recordDTO, error) {
	meta, err := json.Marshal(record.Meta)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize meta: %w", err)
	}
	return &recordDTO{
		Namespace: record.Namespace,
		Address:   record.Address,
		PublicKey: record.PublicKey,
		KeyType:   record.KeyType,
		Encoded:   record.Encoded,
		Encoding:  record.Encoding,
		Meta:      meta,
	}, nil
}

func (d recordDTO) toDomain() (*domain.Record, error) {
	meta := domain.Meta{}
	if len(d.Meta) > 0 {
		if err := json.Unmarshal(d.Meta, &meta); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrCorruptRecord, err)
		}
	}
	return &domain.Record{
		Namespace: d.Namespace,
		Address:   d.Address,
		PublicKey: d.PublicKey,
		KeyType:   d.KeyType,
		Encoded:   d.Encoded,
		Encoding:  d.Encoding,
		Meta:      meta,
	}, nil
}

func recordKey(namespace, address string) string {
	return fmt.Sprintf("%s/%s", namespace, address)
}
