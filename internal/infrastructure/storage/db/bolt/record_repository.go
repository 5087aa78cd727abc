package dbbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/pkg/keypair"
	bolt "go.etcd.io/bbolt"
)

// recordEntry is the json value stored under the address key of the
// namespace bucket.
type recordEntry struct {
	PublicKey []byte           `json:"publicKey,omitempty"`
	KeyType   string           `json:"keyType,omitempty"`
	Encoded   []byte           `json:"encoded,omitempty"`
	Encoding  keypair.Encoding `json:"encoding"`
	Meta      domain.Meta      `json:"meta"`
}

type recordRepository struct {
	db               *bolt.DB
	chEvents         chan domain.RecordEvent
	externalChEvents chan domain.RecordEvent
	lock             *sync.Mutex
	closed           bool

	log func(format string, a ...interface{})
}

func newRecordRepository(db *bolt.DB) *recordRepository {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("record repository: %s", format)
		log.Debugf(format, a...)
	}
	return &recordRepository{
		db:               db,
		chEvents:         make(chan domain.RecordEvent, 10),
		externalChEvents: make(chan domain.RecordEvent, 10),
		lock:             &sync.Mutex{},
		log:              logFn,
	}
}

func (r *recordRepository) GetRecord(
	_ context.Context, namespace, address string,
) (*domain.Record, error) {
	if !domain.IsKnownNamespace(namespace) {
		return nil, domain.ErrUnknownNamespace
	}

	var record *domain.Record
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(namespace)).Get([]byte(address))
		if data == nil {
			return nil
		}
		var err error
		record, err = decodeRecord(namespace, address, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *recordRepository) SetRecord(
	_ context.Context, record *domain.Record,
) error {
	if err := domain.ValidateRecord(record); err != nil {
		return err
	}

	data, err := json.Marshal(recordEntry{
		PublicKey: record.PublicKey,
		KeyType:   record.KeyType,
		Encoded:   record.Encoded,
		Encoding:  record.Encoding,
		Meta:      record.Meta,
	})
	if err != nil {
		return err
	}

	if err := r.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(record.Namespace))
		return bucket.Put([]byte(record.Address), data)
	}); err != nil {
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

	var found bool
	if err := r.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket.Get([]byte(address)) == nil {
			return nil
		}
		found = true
		return bucket.Delete([]byte(address))
	}); err != nil {
		return err
	}

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
	if !domain.IsKnownNamespace(namespace) {
		return domain.ErrUnknownNamespace
	}

	records := make([]*domain.Record, 0)
	if err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(namespace)).ForEach(func(k, v []byte) error {
			record, err := decodeRecord(namespace, string(k), v)
			if err != nil {
				r.log("skipping record %s: %s", k, err)
				return nil
			}
			records = append(records, record)
			return nil
		})
	}); err != nil {
		return err
	}

	// fn runs outside of the read tx so that it can write to the db.
	for _, record := range records {
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
	if err := r.db.Update(func(tx *bolt.Tx) error {
		for _, ns := range domain.Namespaces {
			if err := tx.DeleteBucket([]byte(ns)); err != nil {
				return err
			}
			if _, err := tx.CreateBucket([]byte(ns)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		r.log("failed to reset db: %s", err)
	}
}

func (r *recordRepository) close() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.chEvents)
	close(r.externalChEvents)
}

// decodeRecord must not retain data, which is valid only within the tx.
func decodeRecord(namespace, address string, data []byte) (*domain.Record, error) {
	var entry recordEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorruptRecord, err)
	}
	if entry.Meta == nil {
		entry.Meta = domain.Meta{}
	}
	return &domain.Record{
		Namespace: namespace,
		Address:   address,
		PublicKey: entry.PublicKey,
		KeyType:   entry.KeyType,
		Encoded:   entry.Encoded,
		Encoding:  entry.Encoding,
		Meta:      entry.Meta,
	}, nil
}
