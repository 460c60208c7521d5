package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SourceStore struct {
	db *pgxpool.Pool
}

func NewSourceStore(db *pgxpool.Pool) *SourceStore {
	return &SourceStore{db: db}
}

func (s *SourceStore) Create(ctx context.Context, src *domain.BeliefSource) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO belief_sources (tenant_id, name) VALUES ($1, $2)
		 RETURNING id, created_at`,
		src.TenantID, src.Name,
	).Scan(&src.ID, &src.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *SourceStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.BeliefSource, error) {
	return s.getOne(ctx,
		`SELECT id, tenant_id, name, created_at FROM belief_sources WHERE id = $1 AND tenant_id = $2`,
		id, tenantID)
}

func (s *SourceStore) GetByName(ctx context.Context, name string, tenantID uuid.UUID) (*domain.BeliefSource, error) {
	return s.getOne(ctx,
		`SELECT id, tenant_id, name, created_at FROM belief_sources WHERE name = $1 AND tenant_id = $2`,
		name, tenantID)
}

func (s *SourceStore) getOne(ctx context.Context, query string, args ...any) (*domain.BeliefSource, error) {
	src := &domain.BeliefSource{}
	err := s.db.QueryRow(ctx, query, args...).Scan(&src.ID, &src.TenantID, &src.Name, &src.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return src, nil
}
