package service

import (
	"context"

	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSensorStore mocks the SensorStore interface.
type MockSensorStore struct {
	mock.Mock
}

func (m *MockSensorStore) Create(ctx context.Context, s *domain.Sensor) error {
	args := m.Called(ctx, s)
	if args.Error(0) == nil {
		s.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockSensorStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Sensor, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sensor), args.Error(1)
}

func (m *MockSensorStore) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.Sensor, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Sensor), args.Error(1)
}

func (m *MockSensorStore) UpdateHorizon(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, spec horizon.Spec) error {
	args := m.Called(ctx, id, tenantID, spec)
	return args.Error(0)
}

// memorySourceStore is an in-memory SourceStore.
type memorySourceStore struct {
	sources map[uuid.UUID]*domain.BeliefSource
	creates int
}

func newMemorySourceStore() *memorySourceStore {
	return &memorySourceStore{sources: make(map[uuid.UUID]*domain.BeliefSource)}
}

func (m *memorySourceStore) Create(ctx context.Context, s *domain.BeliefSource) error {
	for _, existing := range m.sources {
		if existing.Name == s.Name && existing.TenantID == s.TenantID {
			return errConflict
		}
	}
	s.ID = uuid.New()
	m.sources[s.ID] = s
	m.creates++
	return nil
}

func (m *memorySourceStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.BeliefSource, error) {
	s, ok := m.sources[id]
	if !ok || s.TenantID != tenantID {
		return nil, errNotFound
	}
	return s, nil
}

func (m *memorySourceStore) GetByName(ctx context.Context, name string, tenantID uuid.UUID) (*domain.BeliefSource, error) {
	for _, s := range m.sources {
		if s.Name == name && s.TenantID == tenantID {
			return s, nil
		}
	}
	return nil, errNotFound
}
