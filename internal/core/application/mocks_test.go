package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/internal/core/ports"
)

// ports.RepoManager
type mockRepoManager struct {
	mock.Mock
	recordRepo *mockRecordRepository
}

func newMockedRepoManager() *mockRepoManager {
	return &mockRepoManager{recordRepo: &mockRecordRepository{}}
}

func (m *mockRepoManager) RecordRepository() domain.RecordRepository {
	return m.recordRepo
}

func (m *mockRepoManager) RegisterHandlerForRecordEvent(
	eventType domain.RecordEventType, handler ports.RecordEventHandler,
) {
	m.Called(eventType, handler)
}

func (m *mockRepoManager) Reset() {}
func (m *mockRepoManager) Close() {}

// domain.RecordRepository
type mockRecordRepository struct {
	mock.Mock
}

func (m *mockRecordRepository) GetRecord(
	ctx context.Context, namespace, address string,
) (*domain.Record, error) {
	args := m.Called(ctx, namespace, address)

	var res *domain.Record
	if a := args.Get(0); a != nil {
		res = a.(*domain.Record)
	}
	return res, args.Error(1)
}

func (m *mockRecordRepository) SetRecord(
	ctx context.Context, record *domain.Record,
) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockRecordRepository) RemoveRecord(
	ctx context.Context, namespace, address string,
) error {
	args := m.Called(ctx, namespace, address)
	return args.Error(0)
}

func (m *mockRecordRepository) ForEach(
	ctx context.Context, namespace string, fn func(record *domain.Record) error,
) error {
	args := m.Called(ctx, namespace, fn)
	return args.Error(0)
}

func (m *mockRecordRepository) GetEventChannel() chan domain.RecordEvent {
	return nil
}
