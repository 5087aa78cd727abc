package domain

import (
	"context"
)

const (
	RecordSet RecordEventType = iota
	RecordRemoved
)

var (
	recordTypeString = map[RecordEventType]string{
		RecordSet:     "RecordSet",
		RecordRemoved: "RecordRemoved",
	}
)

type RecordEventType int

func (t RecordEventType) String() string {
	return recordTypeString[t]
}

// RecordEvent holds info about an event occured within the repository.
type RecordEvent struct {
	EventType RecordEventType
	Namespace string
	Address   string
}

// RecordRepository is the abstraction for any kind of database intended to
// persist account and address records, one per address and namespace.
type RecordRepository interface {
	// GetRecord returns the record stored for the given address, or nil if
	// not existing.
	GetRecord(ctx context.Context, namespace, address string) (*Record, error)
	// SetRecord inserts or replaces the given record.
	// Generates a RecordSet event if successfull.
	SetRecord(ctx context.Context, record *Record) error
	// RemoveRecord deletes the record for the given address, if existing.
	// Generates a RecordRemoved event if something was deleted.
	RemoveRecord(ctx context.Context, namespace, address string) error
	// ForEach calls fn for every record of the namespace. Iteration stops at
	// the first error returned by fn.
	ForEach(
		ctx context.Context, namespace string, fn func(record *Record) error,
	) error
	// GetEventChannel returns the channel of RecordEvents.
	GetEventChannel() chan RecordEvent
}
