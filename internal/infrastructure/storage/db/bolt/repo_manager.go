package dbbolt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/internal/core/ports"
	bolt "go.etcd.io/bbolt"
)

const (
	dbFile = "keyring.db"
)

type repoManager struct {
	db *bolt.DB

	recordRepository *recordRepository

	recordEventHandlers *handlerMap
}

// NewRepoManager opens (or creates) the bolt db file inside the given
// directory, with one bucket per record namespace.
func NewRepoManager(baseDbDir string) (ports.RepoManager, error) {
	if err := os.MkdirAll(baseDbDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %w", err)
	}

	db, err := bolt.Open(
		filepath.Join(baseDbDir, dbFile), 0600,
		&bolt.Options{Timeout: time.Second},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initBuckets(db); err != nil {
		db.Close()
		return nil, err
	}

	rm := &repoManager{
		db:                  db,
		recordRepository:    newRecordRepository(db),
		recordEventHandlers: newHandlerMap(),
	}

	go rm.listenToRecordEvents()

	return rm, nil
}

func (rm *repoManager) RecordRepository() domain.RecordRepository {
	return rm.recordRepository
}

func (rm *repoManager) RegisterHandlerForRecordEvent(
	eventType domain.RecordEventType, handler ports.RecordEventHandler,
) {
	rm.recordEventHandlers.set(int(eventType), handler)
}

func (rm *repoManager) listenToRecordEvents() {
	for event := range rm.recordRepository.chEvents {
		if handlers, ok := rm.recordEventHandlers.get(int(event.EventType)); ok {
			for i := range handlers {
				handler := handlers[i]
				go handler.(ports.RecordEventHandler)(event)
			}
		}
	}
}

func (rm *repoManager) Reset() {
	rm.recordRepository.reset()
}

func (rm *repoManager) Close() {
	rm.recordRepository.close()
	rm.db.Close()
}

func initBuckets(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, ns := range domain.Namespaces {
			if _, err := tx.CreateBucketIfNotExists([]byte(ns)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", ns, err)
			}
		}
		return nil
	})
}

// handlerMap is a util type to prevent race conditions when registering
// or retrieving handlers for events.
type handlerMap struct {
	handlersByEventType map[int][]interface{}
	lock                *sync.RWMutex
}

func newHandlerMap() *handlerMap {
	return &handlerMap{
		handlersByEventType: make(map[int][]interface{}),
		lock:                &sync.RWMutex{},
	}
}

func (m *handlerMap) set(key int, val interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.handlersByEventType[key] = append(m.handlersByEventType[key], val)
}

func (m *handlerMap) get(key int) ([]interface{}, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	val, ok := m.handlersByEventType[key]
	return val, ok
}
