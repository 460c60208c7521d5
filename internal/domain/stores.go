package domain

import (
	"context"

	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/google/uuid"
)

type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*Tenant, error)
}

type SensorStore interface {
	Create(ctx context.Context, s *Sensor) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*Sensor, error)
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Sensor, error)
	UpdateHorizon(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, spec horizon.Spec) error
}

type SourceStore interface {
	Create(ctx context.Context, s *BeliefSource) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*BeliefSource, error)
	GetByName(ctx context.Context, name string, tenantID uuid.UUID) (*BeliefSource, error)
}
