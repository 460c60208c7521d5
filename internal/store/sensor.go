package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/Harshitk-cp/timely/internal/timecodec"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SensorStore struct {
	db *pgxpool.Pool
}

func NewSensorStore(db *pgxpool.Pool) *SensorStore {
	return &SensorStore{db: db}
}

const sensorColumns = `id, tenant_id, name, unit, timezone, event_resolution,
	knowledge_horizon_fnc, knowledge_horizon_par, created_at, updated_at`

func (s *SensorStore) Create(ctx context.Context, sn *domain.Sensor) error {
	par, err := marshalParams(sn.KnowledgeHorizonPar)
	if err != nil {
		return err
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO sensors (tenant_id, name, unit, timezone, event_resolution, knowledge_horizon_fnc, knowledge_horizon_par)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		sn.TenantID, sn.Name, sn.Unit, sn.Timezone,
		timecodec.FormatDuration(sn.EventResolution), sn.KnowledgeHorizonFnc, par,
	).Scan(&sn.ID, &sn.CreatedAt, &sn.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *SensorStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Sensor, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+sensorColumns+` FROM sensors WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	sn, err := scanSensor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sn, nil
}

func (s *SensorStore) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.Sensor, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+sensorColumns+` FROM sensors WHERE tenant_id = $1
		 ORDER BY created_at ASC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors []domain.Sensor
	for rows.Next() {
		sn, err := scanSensor(rows)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, *sn)
	}
	return sensors, rows.Err()
}

func (s *SensorStore) UpdateHorizon(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, spec horizon.Spec) error {
	par, err := marshalParams(spec.Par)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE sensors SET knowledge_horizon_fnc = $1, knowledge_horizon_par = $2, updated_at = NOW()
		 WHERE id = $3 AND tenant_id = $4`,
		spec.Fnc, par, id, tenantID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSensor(row pgx.Row) (*domain.Sensor, error) {
	sn := &domain.Sensor{}
	var resolution string
	var par []byte
	err := row.Scan(&sn.ID, &sn.TenantID, &sn.Name, &sn.Unit, &sn.Timezone, &resolution,
		&sn.KnowledgeHorizonFnc, &par, &sn.CreatedAt, &sn.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sn.EventResolution, err = timecodec.ParseDuration(resolution)
	if err != nil {
		return nil, fmt.Errorf("sensor %s: event_resolution: %w", sn.ID, err)
	}
	sn.KnowledgeHorizonPar, err = unmarshalParams(par)
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %w", sn.ID, err)
	}
	return sn, nil
}
