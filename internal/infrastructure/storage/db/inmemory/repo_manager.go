package inmemory

import (
	"sync"

	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/internal/core/ports"
)

type repoManager struct {
	recordRepository *recordRepository

	recordEventHandlers *handlerMap
}

func NewRepoManager() ports.RepoManager {
	recordRepo := newRecordRepository()

	rm := &repoManager{
		recordRepository:    recordRepo,
		recordEventHandlers: newHandlerMap(),
	}

	go rm.listenToRecordEvents()

	return rm
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
