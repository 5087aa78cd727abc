package ports

import (
	"github.com/vulpemventures/keyring/internal/core/domain"
)

type RecordEventHandler func(event domain.RecordEvent)

// RepoManager is the abstraction for any kind of service intended to manage
// domain repositories implementations of the same concrete type.
type RepoManager interface {
	// RecordRepository returns the repository of account and address records.
	RecordRepository() domain.RecordRepository

	// RegisterHandlerForRecordEvent registers an handler function, executed
	// whenever the given event type occurs.
	RegisterHandlerForRecordEvent(
		eventType domain.RecordEventType, handler RecordEventHandler,
	)

	// Reset brings all the repos to their initial state by deleting any persisted data.
	Reset()

	// Close closes the connection with all concrete repositories
	// implementations.
	Close()
}
