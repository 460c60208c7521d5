package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/Harshitk-cp/timely/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSourceRequired = errors.New("belief source is required")
	ErrSourceNotFound = errors.New("belief source not found")
	ErrSourceEmpty    = errors.New("belief source identifier is empty")
)

// SourceService turns arbitrary source identifiers into canonical belief
// sources, creating them on first use.
type SourceService struct {
	store  domain.SourceStore
	logger *zap.Logger
}

func NewSourceService(s domain.SourceStore, logger *zap.Logger) *SourceService {
	return &SourceService{store: s, logger: logger}
}

func (s *SourceService) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.BeliefSource, error) {
	src, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}
	return src, nil
}

// EnsureExists returns ref unchanged when it already is a *domain.BeliefSource.
// A nil ref is only accepted with allowNone. Any other value is converted to a
// source named after its string form, which is logged as a warning.
func (s *SourceService) EnsureExists(ctx context.Context, tenantID uuid.UUID, ref any, allowNone bool) (*domain.BeliefSource, error) {
	switch v := ref.(type) {
	case *domain.BeliefSource:
		if v != nil {
			return v, nil
		}
	case domain.BeliefSource:
		return &v, nil
	}
	if isNone(ref) {
		if allowNone {
			return nil, nil
		}
		return nil, ErrSourceRequired
	}

	name := fmt.Sprint(ref)
	if name == "" {
		return nil, ErrSourceEmpty
	}

	src, err := s.findOrCreate(ctx, tenantID, name)
	if err != nil {
		return nil, err
	}
	s.logger.Warn("belief source created from identifier",
		zap.String("source_id", src.ID.String()),
		zap.String("identifier_type", fmt.Sprintf("%T", ref)),
		zap.String("identifier", name),
	)
	return src, nil
}

// EnsureAllExist applies EnsureExists to every ref, converting each distinct
// identifier once. The result has the same length and order as refs.
func (s *SourceService) EnsureAllExist(ctx context.Context, tenantID uuid.UUID, refs []any, allowNone bool) ([]*domain.BeliefSource, error) {
	out := make([]*domain.BeliefSource, len(refs))
	converted := make(map[string]*domain.BeliefSource)

	for i, ref := range refs {
		key, convertible := identifierKey(ref)
		if !convertible {
			src, err := s.EnsureExists(ctx, tenantID, ref, allowNone)
			if err != nil {
				return nil, fmt.Errorf("source %d: %w", i, err)
			}
			out[i] = src
			continue
		}

		if src, ok := converted[key]; ok {
			out[i] = src
			continue
		}
		src, err := s.EnsureExists(ctx, tenantID, ref, allowNone)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		converted[key] = src
		out[i] = src
	}
	return out, nil
}

func (s *SourceService) findOrCreate(ctx context.Context, tenantID uuid.UUID, name string) (*domain.BeliefSource, error) {
	src, err := s.store.GetByName(ctx, name, tenantID)
	if err == nil {
		return src, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	src = &domain.BeliefSource{TenantID: tenantID, Name: name}
	if err := s.store.Create(ctx, src); err != nil {
		// lost a race with a concurrent creator
		if errors.Is(err, store.ErrConflict) {
			return s.store.GetByName(ctx, name, tenantID)
		}
		return nil, err
	}
	return src, nil
}

func isNone(ref any) bool {
	if ref == nil {
		return true
	}
	src, ok := ref.(*domain.BeliefSource)
	return ok && src == nil
}

// identifierKey reports whether ref gets converted and, if so, the key that
// identifies it among a batch. The key includes the type, so 42 and "42" are
// distinct identifiers even though both name the same source.
func identifierKey(ref any) (string, bool) {
	switch ref.(type) {
	case *domain.BeliefSource, domain.BeliefSource, nil:
		return "", false
	}
	return fmt.Sprintf("%T:%v", ref, ref), true
}
