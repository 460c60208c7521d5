package service

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/Harshitk-cp/timely/internal/store"
	"github.com/Harshitk-cp/timely/internal/timecodec"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSensorNotFound    = errors.New("sensor not found")
	ErrSensorConflict    = errors.New("sensor with this name already exists")
	ErrSensorNameEmpty   = errors.New("name is required")
	ErrHorizonAmbiguous  = errors.New("knowledge horizon must be either a fixed duration or a rule, not both")
	ErrHorizonIncomplete = errors.New("knowledge horizon rule requires fnc")
)

const defaultSensorListLimit = 100

// HorizonInput selects a sensor's knowledge horizon: either a fixed duration
// or a named rule with its parameters.
type HorizonInput struct {
	Fixed *time.Duration
	Fnc   string
	Par   timecodec.Bag
}

func (h HorizonInput) option() (domain.SensorOption, error) {
	switch {
	case h.Fixed != nil && h.Fnc != "":
		return nil, ErrHorizonAmbiguous
	case h.Fixed != nil:
		return domain.WithFixedHorizon(*h.Fixed), nil
	case h.Fnc != "":
		return domain.WithHorizonRule(h.Fnc, h.Par), nil
	default:
		return nil, ErrHorizonIncomplete
	}
}

type CreateSensorParams struct {
	TenantID        uuid.UUID
	Name            string
	Unit            string
	Timezone        string
	EventResolution time.Duration
	Horizon         *HorizonInput
}

type SensorService struct {
	store  domain.SensorStore
	logger *zap.Logger
}

func NewSensorService(s domain.SensorStore, logger *zap.Logger) *SensorService {
	return &SensorService{store: s, logger: logger}
}

func (s *SensorService) Create(ctx context.Context, p CreateSensorParams) (*domain.Sensor, error) {
	if p.Name == "" {
		return nil, ErrSensorNameEmpty
	}

	var opts []domain.SensorOption
	if p.Horizon != nil {
		opt, err := p.Horizon.option()
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}

	sn, err := domain.NewSensor(p.Name, p.Unit, p.Timezone, p.EventResolution, opts...)
	if err != nil {
		return nil, err
	}
	if err := sn.HorizonSpec().Validate(); err != nil {
		return nil, err
	}
	sn.TenantID = p.TenantID

	if err := s.store.Create(ctx, sn); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrSensorConflict
		}
		return nil, err
	}

	s.logger.Info("sensor created",
		zap.String("sensor_id", sn.ID.String()),
		zap.String("knowledge_horizon_fnc", sn.KnowledgeHorizonFnc),
		zap.Duration("event_resolution", sn.EventResolution),
	)
	return sn, nil
}

func (s *SensorService) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Sensor, error) {
	sn, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSensorNotFound
		}
		return nil, err
	}
	return sn, nil
}

func (s *SensorService) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.Sensor, error) {
	if limit <= 0 || limit > defaultSensorListLimit {
		limit = defaultSensorListLimit
	}
	return s.store.List(ctx, tenantID, limit)
}

// UpdateHorizon reassigns a sensor's horizon rule. The new rule is verified
// before anything is written.
func (s *SensorService) UpdateHorizon(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, in HorizonInput) (*domain.Sensor, error) {
	opt, err := in.option()
	if err != nil {
		return nil, err
	}

	sn, err := s.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	probe, err := domain.NewSensor(sn.Name, sn.Unit, sn.Timezone, sn.EventResolution, opt)
	if err != nil {
		return nil, err
	}
	spec := probe.HorizonSpec()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateHorizon(ctx, id, tenantID, spec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSensorNotFound
		}
		return nil, err
	}
	sn.SetHorizonSpec(spec)

	s.logger.Info("sensor knowledge horizon updated",
		zap.String("sensor_id", sn.ID.String()),
		zap.String("knowledge_horizon_fnc", spec.Fnc),
	)
	return sn, nil
}

func (s *SensorService) KnowledgeHorizon(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, eventStart time.Time) (time.Duration, error) {
	sn, err := s.GetByID(ctx, id, tenantID)
	if err != nil {
		return 0, err
	}
	h, err := sn.KnowledgeHorizon(eventStart)
	if err != nil {
		s.logEvalFailure(sn, err)
		return 0, err
	}
	return h, nil
}

func (s *SensorService) KnowledgeHorizonBounds(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, eventStart time.Time) (horizon.Bounds, error) {
	sn, err := s.GetByID(ctx, id, tenantID)
	if err != nil {
		return horizon.Bounds{}, err
	}
	b, err := sn.KnowledgeHorizonBounds(eventStart)
	if err != nil {
		s.logEvalFailure(sn, err)
		return horizon.Bounds{}, err
	}
	return b, nil
}

func (s *SensorService) KnowledgeTime(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, eventStart time.Time) (time.Time, error) {
	sn, err := s.GetByID(ctx, id, tenantID)
	if err != nil {
		return time.Time{}, err
	}
	kt, err := sn.KnowledgeTime(eventStart)
	if err != nil {
		s.logEvalFailure(sn, err)
		return time.Time{}, err
	}
	return kt, nil
}

// A stored rule that fails verification means the record is corrupt or was
// tampered with.
func (s *SensorService) logEvalFailure(sn *domain.Sensor, err error) {
	if errors.Is(err, horizon.ErrVerificationFailed) || errors.Is(err, horizon.ErrMissingParameter) ||
		errors.Is(err, horizon.ErrMalformedParameter) {
		s.logger.Warn("stored knowledge horizon rule refused",
			zap.String("sensor_id", sn.ID.String()),
			zap.String("knowledge_horizon_fnc", sn.KnowledgeHorizonFnc),
			zap.Error(err),
		)
	}
}
