package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedSourceService() (*SourceService, *memorySourceStore, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	st := newMemorySourceStore()
	return NewSourceService(st, zap.New(core)), st, logs
}

func TestSourceService_ExistingSourcePassesThrough(t *testing.T) {
	svc, _, logs := newObservedSourceService()
	src := &domain.BeliefSource{ID: uuid.New(), Name: "TestSource"}

	got, err := svc.EnsureExists(context.Background(), uuid.New(), src, false)
	require.NoError(t, err)
	assert.Same(t, src, got)
	assert.Equal(t, 0, logs.Len())
}

func TestSourceService_FromString(t *testing.T) {
	svc, _, logs := newObservedSourceService()

	got, err := svc.EnsureExists(context.Background(), uuid.New(), "TestSource", false)
	require.NoError(t, err)
	assert.Equal(t, "TestSource", got.Name)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "created from")
}

func TestSourceService_FromInt(t *testing.T) {
	svc, _, logs := newObservedSourceService()

	got, err := svc.EnsureExists(context.Background(), uuid.New(), 42, false)
	require.NoError(t, err)
	assert.Equal(t, "42", got.Name)
	assert.Equal(t, 1, logs.Len())
}

func TestSourceService_ReusesExisting(t *testing.T) {
	svc, st, _ := newObservedSourceService()
	tenantID := uuid.New()

	a, err := svc.EnsureExists(context.Background(), tenantID, "Source2", false)
	require.NoError(t, err)
	b, err := svc.EnsureExists(context.Background(), tenantID, "Source2", false)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, 1, st.creates)
}

func TestSourceService_None(t *testing.T) {
	svc, _, _ := newObservedSourceService()

	_, err := svc.EnsureExists(context.Background(), uuid.New(), nil, false)
	assert.ErrorIs(t, err, ErrSourceRequired)

	got, err := svc.EnsureExists(context.Background(), uuid.New(), nil, true)
	require.NoError(t, err)
	assert.Nil(t, got)

	var typedNil *domain.BeliefSource
	_, err = svc.EnsureExists(context.Background(), uuid.New(), typedNil, false)
	assert.ErrorIs(t, err, ErrSourceRequired)
}

func TestSourceService_EnsureAllExist(t *testing.T) {
	svc, _, logs := newObservedSourceService()
	s1 := &domain.BeliefSource{ID: uuid.New(), Name: "Source1"}
	s3 := &domain.BeliefSource{ID: uuid.New(), Name: "Source3"}

	got, err := svc.EnsureAllExist(context.Background(), uuid.New(), []any{s1, "Source2", s3, "Source2"}, false)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Same(t, s1, got[0])
	assert.Same(t, s3, got[2])
	assert.Equal(t, "Source2", got[1].Name)
	assert.Same(t, got[1], got[3])
	assert.Equal(t, 1, logs.Len(), "one warning per distinct identifier")
}

func TestSourceService_EnsureAllExist_IdentifiersKeyedByType(t *testing.T) {
	svc, st, logs := newObservedSourceService()

	got, err := svc.EnsureAllExist(context.Background(), uuid.New(), []any{42, "42", 42}, false)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, got[0].ID, got[1].ID)
	assert.Same(t, got[0], got[2])
	assert.Equal(t, 1, st.creates)
	assert.Equal(t, 2, logs.Len())
}

func TestSourceService_EnsureAllExist_NoConversions(t *testing.T) {
	svc, _, logs := newObservedSourceService()
	s1 := &domain.BeliefSource{Name: "Source1"}

	got, err := svc.EnsureAllExist(context.Background(), uuid.New(), []any{s1, &domain.BeliefSource{Name: "Source2"}, s1}, false)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 0, logs.Len())
}

func TestSourceService_EnsureAllExist_None(t *testing.T) {
	svc, _, logs := newObservedSourceService()
	s1 := &domain.BeliefSource{Name: "Source1"}

	_, err := svc.EnsureAllExist(context.Background(), uuid.New(), []any{s1, nil}, false)
	assert.ErrorIs(t, err, ErrSourceRequired)

	got, err := svc.EnsureAllExist(context.Background(), uuid.New(), []any{s1, nil, "Source2"}, true)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Nil(t, got[1])
	assert.Equal(t, "Source2", got[2].Name)
	assert.Equal(t, 1, logs.Len())
}

func TestSourceService_EnsureAllExist_Empty(t *testing.T) {
	svc, _, _ := newObservedSourceService()

	got, err := svc.EnsureAllExist(context.Background(), uuid.New(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, got)
}
