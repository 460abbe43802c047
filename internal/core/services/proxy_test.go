package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docforge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// mockArtifactStore is a testify double of driven.ArtifactStore.
type mockArtifactStore struct {
	mock.Mock
}

func (m *mockArtifactStore) Save(ctx context.Context, a *domain.Artifact) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockArtifactStore) Get(ctx context.Context, guid string) (*domain.Artifact, error) {
	args := m.Called(ctx, guid)
	a, _ := args.Get(0).(*domain.Artifact)
	return a, args.Error(1)
}

func (m *mockArtifactStore) ListByGroup(ctx context.Context, group string) ([]domain.ArtifactInfo, error) {
	args := m.Called(ctx, group)
	infos, _ := args.Get(0).([]domain.ArtifactInfo)
	return infos, args.Error(1)
}

func (m *mockArtifactStore) DeleteBySession(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *mockArtifactStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

func (m *mockArtifactStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

var _ driven.ArtifactStore = (*mockArtifactStore)(nil)

// fixedClock returns a settable clock for the proxy service.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestProxyService_StoreAndFetch(t *testing.T) {
	svc := NewProxyService(memory.NewArtifactStore(), 24*time.Hour, 0)
	ctx := context.Background()

	guid, err := svc.Store(ctx, "session-1", "finance", domain.FormatMarkdown, "default", []byte("# Report"))
	require.NoError(t, err)
	assert.Len(t, guid, 36)

	a, err := svc.Fetch(ctx, guid, "finance")
	require.NoError(t, err)
	assert.Equal(t, "session-1", a.SessionID)
	assert.Equal(t, domain.FormatMarkdown, a.Format)
	assert.Equal(t, "default", a.StyleID)
	assert.Equal(t, []byte("# Report"), a.Data)
	assert.True(t, a.ExpiresAt.IsZero())

	other, err := svc.Store(ctx, "session-1", "finance", domain.FormatMarkdown, "default", []byte("# Report"))
	require.NoError(t, err)
	assert.NotEqual(t, guid, other)
}

func TestProxyService_Fetch_NotFound(t *testing.T) {
	svc := NewProxyService(memory.NewArtifactStore(), 0, time.Hour)
	now, advance := fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	svc.now = now
	ctx := context.Background()

	guid, err := svc.Store(ctx, "s", "a", domain.FormatCanonical, "default", []byte("<p>x</p>"))
	require.NoError(t, err)

	_, err = svc.Fetch(ctx, guid, "b")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = svc.Fetch(ctx, "missing", "a")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

	advance(59 * time.Minute)
	_, err = svc.Fetch(ctx, guid, "a")
	require.NoError(t, err)

	advance(time.Minute)
	_, err = svc.Fetch(ctx, guid, "a")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestProxyService_EmptyGroupIsPublic(t *testing.T) {
	svc := NewProxyService(memory.NewArtifactStore(), 0, 0)
	ctx := context.Background()

	guid, err := svc.Store(ctx, "s", "", domain.FormatMarkdown, "default", []byte("x"))
	require.NoError(t, err)

	_, err = svc.Fetch(ctx, guid, domain.PublicGroup)
	assert.NoError(t, err)
}

func TestProxyService_ListAndDeleteBySession(t *testing.T) {
	svc := NewProxyService(memory.NewArtifactStore(), 0, 0)
	ctx := context.Background()

	for _, sid := range []string{"s1", "s1", "s2"} {
		_, err := svc.Store(ctx, sid, "a", domain.FormatMarkdown, "default", []byte(sid))
		require.NoError(t, err)
	}
	_, err := svc.Store(ctx, "s3", "b", domain.FormatMarkdown, "default", []byte("b"))
	require.NoError(t, err)

	infos, err := svc.List(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, infos, 3)

	n, err := svc.DeleteBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	infos, err = svc.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "s2", infos[0].SessionID)
}

func TestProxyService_Sweep(t *testing.T) {
	store := memory.NewArtifactStore()
	svc := NewProxyService(store, 2*time.Hour, 0)
	now, advance := fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	svc.now = now
	ctx := context.Background()

	old, err := svc.Store(ctx, "s", "a", domain.FormatMarkdown, "default", []byte("old"))
	require.NoError(t, err)
	advance(90 * time.Minute)
	fresh, err := svc.Store(ctx, "s", "a", domain.FormatMarkdown, "default", []byte("fresh"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, &domain.Artifact{
		GUID: "short-lived", SessionID: "s", Group: "a",
		CreatedAt: now(), ExpiresAt: now().Add(10 * time.Minute),
	}))

	advance(time.Hour)
	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.Fetch(ctx, old, "a")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	_, err = svc.Fetch(ctx, fresh, "a")
	assert.NoError(t, err)

	n, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProxyService_StorageFailures(t *testing.T) {
	store := &mockArtifactStore{}
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	store.On("Get", mock.Anything, "broken").Return(nil, errors.New("corrupt page"))
	store.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(1, nil)
	store.On("DeleteExpired", mock.Anything, mock.Anything).Return(0, errors.New("locked"))

	svc := NewProxyService(store, time.Hour, 0)
	ctx := context.Background()

	_, err := svc.Store(ctx, "s", "a", domain.FormatMarkdown, "default", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrStorageFailure)

	_, err = svc.Fetch(ctx, "broken", "a")
	assert.ErrorIs(t, err, domain.ErrStorageFailure)

	n, err := svc.Sweep(ctx)
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Equal(t, 1, n)

	store.AssertExpectations(t)
}
