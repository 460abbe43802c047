package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docforge/internal/adapters/driven/catalog"
	"github.com/custodia-labs/docforge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docforge/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/validation"
)

// --- Test fixtures ---

type sessionFixture struct {
	svc       *SessionService
	store     *memory.SessionStore
	artifacts *memory.ArtifactStore
	catalog   *catalog.Catalog
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	store := memory.NewSessionStore()
	artifacts := memory.NewArtifactStore()
	cat := catalog.Builtin()
	validator := validation.New(nil, validation.Options{Embed: false})
	return &sessionFixture{
		svc:       NewSessionService(store, artifacts, cat, validator),
		store:     store,
		artifacts: artifacts,
		catalog:   cat,
	}
}

func (f *sessionFixture) create(t *testing.T, alias, group string) *domain.Session {
	t.Helper()
	sess, err := f.svc.Create(context.Background(), "basic_report", alias, group)
	require.NoError(t, err)
	return sess
}

func paragraph(text string) map[string]any {
	return map[string]any{"text": text}
}

// mockSessionStore is a testify double of driven.SessionStore.
type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func (m *mockSessionStore) GetByAlias(ctx context.Context, group, alias string) (*domain.Session, error) {
	args := m.Called(ctx, group, alias)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func (m *mockSessionStore) Put(ctx context.Context, session *domain.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionStore) ListByGroup(ctx context.Context, group string) ([]domain.Session, error) {
	args := m.Called(ctx, group)
	s, _ := args.Get(0).([]domain.Session)
	return s, args.Error(1)
}

func (m *mockSessionStore) List(ctx context.Context) ([]domain.Session, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]domain.Session)
	return s, args.Error(1)
}

var _ driven.SessionStore = (*mockSessionStore)(nil)

// --- Create / Resolve ---

func TestSessionService_Create(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess := f.create(t, "q4-report", "a")
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "q4-report", sess.Alias)
	assert.Equal(t, "a", sess.Group)
	assert.Equal(t, domain.SessionActive, sess.Status)
	assert.Zero(t, sess.NextSeq)

	stored, err := f.store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "q4-report", stored.Alias)

	id, err := f.svc.Resolve(ctx, "q4-report", "a")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)

	id, err = f.svc.Resolve(ctx, sess.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)
}

func TestSessionService_Create_Errors(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.create(t, "taken", "a")

	tests := []struct {
		name     string
		template string
		alias    string
		want     *domain.Error
	}{
		{"alias too short", "basic_report", "ab", domain.ErrInvalidAlias},
		{"alias bad characters", "basic_report", "q4 report", domain.ErrInvalidAlias},
		{"alias too long", "basic_report", string(make([]byte, 65)), domain.ErrInvalidAlias},
		{"unknown template", "nope", "fresh", domain.ErrUnknownTemplate},
		{"alias in use", "basic_report", "taken", domain.ErrAliasConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.template, tt.alias, "a")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, domain.KindConflict, domain.KindOf(func() error {
		_, err := f.svc.Create(ctx, "basic_report", "taken", "a")
		return err
	}()))
}

func TestSessionService_Create_EmptyGroupIsPublic(t *testing.T) {
	f := newSessionFixture(t)
	sess := f.create(t, "shared", "")
	assert.Equal(t, domain.PublicGroup, sess.Group)

	_, err := f.svc.Resolve(context.Background(), "shared", domain.PublicGroup)
	assert.NoError(t, err)
}

func TestSessionService_Create_ConcurrentSameAlias(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, "basic_report", "race", "a")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAliasConflict)
	}
	assert.Equal(t, 1, succeeded)
}

func TestSessionService_Create_StoreFailureReleasesAlias(t *testing.T) {
	store := &mockSessionStore{}
	store.On("Put", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	store.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := NewSessionService(store, nil, catalog.Builtin(), validation.New(nil, validation.Options{}))
	ctx := context.Background()

	_, err := svc.Create(ctx, "basic_report", "retry", "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Equal(t, domain.KindStorage, domain.KindOf(err))

	_, err = svc.Create(ctx, "basic_report", "retry", "a")
	assert.NoError(t, err)
	store.AssertNumberOfCalls(t, "Put", 2)
}

func TestSessionService_BecomesReadyOnceGlobalsAndFragmentsSet(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.create(t, "q4-report", "public")

	report, err := f.svc.Status(ctx, "q4-report", "public")
	require.NoError(t, err)
	assert.False(t, report.Ready)
	assert.Equal(t, []string{"title"}, report.MissingGlobals)

	require.NoError(t, f.svc.SetGlobals(ctx, "q4-report", "public", map[string]any{"title": "Q4", "author": "X"}))

	id, err := f.svc.AddFragment(ctx, "q4-report", "public", "paragraph", paragraph("Intro"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	report, err = f.svc.Status(ctx, "q4-report", "public")
	require.NoError(t, err)
	assert.Equal(t, "basic_report", report.TemplateID)
	assert.Equal(t, 1, report.FragmentCount)
	assert.True(t, report.GlobalsSet)
	assert.Empty(t, report.MissingGlobals)
	assert.True(t, report.Ready)
	assert.Equal(t, domain.SessionActive, report.Status)
}

// The same alias in two groups names two sessions.
func TestSessionService_AliasIsScopedToGroup(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	a := f.create(t, "weekly", "a")
	b := f.create(t, "weekly", "b")
	require.NotEqual(t, a.ID, b.ID)

	id, err := f.svc.Resolve(ctx, "weekly", "b")
	require.NoError(t, err)
	assert.Equal(t, b.ID, id)

	// a's UUID is invisible to b, exactly like a missing session.
	_, err = f.svc.Resolve(ctx, a.ID, "b")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, missing := f.svc.Resolve(ctx, "00000000-0000-0000-0000-000000000000", "b")
	assert.Equal(t, missing.Error(), err.Error())

	_, err = f.svc.Get(ctx, a.ID, "b")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	err = f.svc.SetGlobals(ctx, a.ID, "b", map[string]any{"title": "stolen"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = f.svc.AddFragment(ctx, a.ID, "b", "paragraph", paragraph("x"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Abort from the wrong group is a no-op.
	require.NoError(t, f.svc.Abort(ctx, a.ID, "b"))
	_, err = f.svc.Get(ctx, a.ID, "a")
	assert.NoError(t, err)
}

func TestSessionService_GroupNeverChanges(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	sess := f.create(t, "owned", "a")

	require.NoError(t, f.svc.SetGlobals(ctx, sess.ID, "a", map[string]any{"title": "T"}))
	id, err := f.svc.AddFragment(ctx, sess.ID, "a", "paragraph", paragraph("one"))
	require.NoError(t, err)
	_, err = f.svc.ReplaceFragment(ctx, sess.ID, "a", id, paragraph("two"))
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, "owned", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Group)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "owned", got.Alias)

	stored, err := f.store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Group)
}

// --- Globals ---

func TestSessionService_SetGlobals_ReplacesWholeMap(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.create(t, "globals", "a")

	require.NoError(t, f.svc.SetGlobals(ctx, "globals", "a", map[string]any{"title": "T", "author": "A"}))
	require.NoError(t, f.svc.SetGlobals(ctx, "globals", "a", map[string]any{"title": "T2"}))

	got, err := f.svc.Get(ctx, "globals", "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "T2"}, got.Globals)
}

func TestSessionService_SetGlobals_InvalidLeavesSessionUnchanged(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.create(t, "globals", "a")
	require.NoError(t, f.svc.SetGlobals(ctx, "globals", "a", map[string]any{"title": "T"}))

	err := f.svc.SetGlobals(ctx, "globals", "a", map[string]any{"colour": "red", "date": "yesterday"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	fields := make([]string, len(de.Fields))
	for i, fe := range de.Fields {
		fields[i] = fe.Field
	}
	assert.ElementsMatch(t, []string{"colour", "title", "date"}, fields)

	got, err := f.svc.Get(ctx, "globals", "a")
	require.NoError(t, err)
	assert.Equal(t, "T", got.Globals["title"])
}

// --- Fragments ---

func TestSessionService_AddFragment_Errors(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.create(t, "frag", "a")

	_, err := f.svc.AddFragment(ctx, "frag", "a", "chart", map[string]any{})
	assert.ErrorIs(t, err, domain.ErrInvalidFragment)

	_, err = f.svc.AddFragment(ctx, "frag", "a", "paragraph", map[string]any{"text": 42})
	assert.ErrorIs(t, err, domain.ErrInvalidFragment)

	_, err = f.svc.AddFragment(ctx, "frag", "a", "table", map[string]any{
		"rows":       []any{[]any{"Q", "Rev"}},
		"has_header": true,
		"sort_by":    map[string]any{"column": "Revenue"},
	})
	require.Error(t, err)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeInvalidFragmentParameters, de.Code)
	require.Len(t, de.Fields, 1)
	assert.Equal(t, "sort_by[0].column", de.Fields[0].Field)

	frags, err := f.svc.ListFragments(ctx, "frag", "a")
	require.NoError(t, err)
	assert.Empty(t, frags)

	_, err = f.svc.AddFragment(ctx, "nobody", "a", "paragraph", paragraph("x"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_ConcurrentAdds(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	sess := f.create(t, "busy", "a")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddFragment(ctx, sess.ID, "a", "paragraph", paragraph(fmt.Sprintf("p%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	frags, err := f.svc.ListFragments(ctx, sess.ID, "a")
	require.NoError(t, err)
	require.Len(t, frags, n)

	ids := make(map[string]bool, n)
	for i, fr := range frags {
		assert.Equal(t, int64(i), fr.Seq)
		ids[fr.InstanceID] = true
	}
	assert.Len(t, ids, n)

	got, err := f.svc.Get(ctx, sess.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.NextSeq)
	assert.True(t, got.Consistent())

	stored, err := f.store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Fragments, n)
	assert.Equal(t, 0, f.svc.locks.size())
}

func TestSessionService_RemoveFragment_KeepsSequenceNumbers(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.create(t, "remove", "a")

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := f.svc.AddFragment(ctx, "remove", "a", "paragraph", paragraph(fmt.Sprint(i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, f.svc.RemoveFragment(ctx, "remove", "a", ids[1]))
	assert.ErrorIs(t, f.svc.RemoveFragment(ctx, "remove", "a", ids[1]), domain.ErrFragmentNotFound)

	_, err := f.svc.AddFragment(ctx, "remove", "a", "paragraph", paragraph("3"))
	require.NoError(t, err)

	frags, err := f.svc.ListFragments(ctx, "remove", "a")
	require.NoError(t, err)
	seqs := make([]int64, len(frags))
	for i, fr := range frags {
		seqs[i] = fr.Seq
	}
	assert.Equal(t, []int64{0, 2, 3}, seqs)
}

func TestSessionService_ReplaceFragment(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.create(t, "replace", "a")

	first, err := f.svc.AddFragment(ctx, "replace", "a", "paragraph", paragraph("first"))
	require.NoError(t, err)
	second, err := f.svc.AddFragment(ctx, "replace", "a", "heading", map[string]any{"text": "Heading"})
	require.NoError(t, err)

	replaced, err := f.svc.ReplaceFragment(ctx, "replace", "a", first, paragraph("revised"))
	require.NoError(t, err)
	assert.NotEqual(t, first, replaced)

	frags, err := f.svc.ListFragments(ctx, "replace", "a")
	require.NoError(t, err)
	require.Len(t, frags, 2)
	assert.Equal(t, second, frags[0].InstanceID)
	assert.Equal(t, replaced, frags[1].InstanceID)
	assert.Equal(t, int64(2), frags[1].Seq)
	assert.Equal(t, "paragraph", frags[1].FragmentID)
	assert.Equal(t, "revised", frags[1].Params["text"])

	// Invalid replacement leaves everything in place.
	_, err = f.svc.ReplaceFragment(ctx, "replace", "a", replaced, map[string]any{"text": ""})
	assert.ErrorIs(t, err, domain.ErrInvalidFragment)
	_, err = f.svc.ReplaceFragment(ctx, "replace", "a", first, paragraph("gone"))
	assert.ErrorIs(t, err, domain.ErrFragmentNotFound)

	after, err := f.svc.ListFragments(ctx, "replace", "a")
	require.NoError(t, err)
	assert.Equal(t, frags, after)

	got, err := f.svc.Get(ctx, "replace", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.NextSeq)
}

func TestSessionService_StorageFailureRollsBack(t *testing.T) {
	store := &mockSessionStore{}
	store.On("Put", mock.Anything, mock.Anything).Return(nil).Twice()
	store.On("Put", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := NewSessionService(store, nil, catalog.Builtin(), validation.New(nil, validation.Options{}))
	ctx := context.Background()

	sess, err := svc.Create(ctx, "basic_report", "fragile", "a")
	require.NoError(t, err)
	_, err = svc.AddFragment(ctx, sess.ID, "a", "paragraph", paragraph("kept"))
	require.NoError(t, err)

	_, err = svc.AddFragment(ctx, sess.ID, "a", "paragraph", paragraph("lost"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Equal(t, domain.CodeStorageFailure, domain.CodeOf(err))

	err = svc.SetGlobals(ctx, sess.ID, "a", map[string]any{"title": "lost"})
	assert.ErrorIs(t, err, domain.ErrStorageFailure)

	got, err := svc.Get(ctx, sess.ID, "a")
	require.NoError(t, err)
	require.Len(t, got.Fragments, 1)
	assert.Equal(t, "kept", got.Fragments[0].Params["text"])
	assert.Equal(t, int64(1), got.NextSeq)
	assert.Empty(t, got.Globals)
}

func TestSessionService_GetReturnsIndependentSnapshot(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.create(t, "snap", "a")
	_, err := f.svc.AddFragment(ctx, "snap", "a", "paragraph", paragraph("original"))
	require.NoError(t, err)

	snap, err := f.svc.Get(ctx, "snap", "a")
	require.NoError(t, err)
	snap.Fragments[0].Params["text"] = "tampered"
	snap.Globals["title"] = "tampered"

	again, err := f.svc.Get(ctx, "snap", "a")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Fragments[0].Params["text"])
	assert.Empty(t, again.Globals)
}

// --- Abort / List / Load ---

func TestSessionService_Abort(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	sess := f.create(t, "doomed", "a")

	require.NoError(t, f.artifacts.Save(ctx, &domain.Artifact{GUID: "g-1", SessionID: sess.ID, Group: "a", CreatedAt: time.Now()}))
	require.NoError(t, f.artifacts.Save(ctx, &domain.Artifact{GUID: "g-2", SessionID: "other", Group: "a", CreatedAt: time.Now()}))

	require.NoError(t, f.svc.Abort(ctx, "doomed", "a"))
	require.NoError(t, f.svc.Abort(ctx, "doomed", "a"))
	require.NoError(t, f.svc.Abort(ctx, sess.ID, "a"))
	require.NoError(t, f.svc.Abort(ctx, "never-existed", "a"))

	_, err := f.svc.Get(ctx, sess.ID, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = f.store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.artifacts.Get(ctx, "g-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.artifacts.Get(ctx, "g-2")
	assert.NoError(t, err)

	// The alias is free again.
	again := f.create(t, "doomed", "a")
	assert.NotEqual(t, sess.ID, again.ID)
}

func TestSessionService_List(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.create(t, "zulu", "a")
	f.create(t, "alpha", "a")
	f.create(t, "mike", "b")

	list, err := f.svc.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Alias)
	assert.Equal(t, "zulu", list[1].Alias)

	list, err = f.svc.List(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionService_Load(t *testing.T) {
	store := memory.NewSessionStore()
	ctx := context.Background()
	now := time.Now().UTC()

	active := &domain.Session{
		ID: "s-active", Alias: "kept", TemplateID: "basic_report", Group: "a",
		Globals: map[string]any{"title": "T"},
		Fragments: []domain.FragmentInstance{
			{InstanceID: "i-2", FragmentID: "paragraph", Params: paragraph("second"), Seq: 4},
			{InstanceID: "i-1", FragmentID: "paragraph", Params: paragraph("first"), Seq: 1},
		},
		NextSeq: 5, Status: domain.SessionActive, CreatedAt: now, UpdatedAt: now,
	}
	aborted := &domain.Session{ID: "s-aborted", Alias: "old", TemplateID: "basic_report", Group: "a",
		Status: domain.SessionAborted, CreatedAt: now, UpdatedAt: now}
	corrupt := &domain.Session{ID: "s-corrupt", Alias: "broken", TemplateID: "basic_report", Group: "a",
		Fragments: []domain.FragmentInstance{{InstanceID: "i-9", FragmentID: "paragraph", Seq: 9}},
		NextSeq:   3, Status: domain.SessionActive, CreatedAt: now, UpdatedAt: now}
	for _, s := range []*domain.Session{active, aborted, corrupt} {
		require.NoError(t, store.Put(ctx, s))
	}

	svc := NewSessionService(store, nil, catalog.Builtin(), validation.New(nil, validation.Options{}))
	n, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	frags, err := svc.ListFragments(ctx, "kept", "a")
	require.NoError(t, err)
	require.Len(t, frags, 2)
	assert.Equal(t, "i-1", frags[0].InstanceID)

	_, err = svc.Resolve(ctx, "old", "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = svc.Resolve(ctx, "broken", "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	id, err := svc.AddFragment(ctx, "kept", "a", "paragraph", paragraph("third"))
	require.NoError(t, err)
	got, err := svc.Get(ctx, "kept", "a")
	require.NoError(t, err)
	inst, ok := got.Fragment(id)
	require.True(t, ok)
	assert.Equal(t, int64(5), inst.Seq)
}

func TestSessionService_ConcurrentProcessesKeepBothWrites(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	openProcess := func() *SessionService {
		store, err := sqlite.NewStore(dir)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		svc := NewSessionService(store.SessionStore(), store.ArtifactStore(), catalog.Builtin(),
			validation.New(nil, validation.Options{}))
		_, err = svc.Load(ctx)
		require.NoError(t, err)
		return svc
	}

	first := openProcess()
	_, err := first.Create(ctx, "basic_report", "shared", "a")
	require.NoError(t, err)
	second := openProcess()

	_, err = first.AddFragment(ctx, "shared", "a", "paragraph", paragraph("from first"))
	require.NoError(t, err)
	// second still caches version 1 and has to pick up the first write.
	_, err = second.AddFragment(ctx, "shared", "a", "paragraph", paragraph("from second"))
	require.NoError(t, err)

	frags, err := openProcess().ListFragments(ctx, "shared", "a")
	require.NoError(t, err)
	require.Len(t, frags, 2)
	assert.Equal(t, "from first", frags[0].Params["text"])
	assert.Equal(t, int64(0), frags[0].Seq)
	assert.Equal(t, "from second", frags[1].Params["text"])
	assert.Equal(t, int64(1), frags[1].Seq)

	// A session aborted elsewhere is gone once a write notices.
	require.NoError(t, first.Abort(ctx, "shared", "a"))
	_, err = second.AddFragment(ctx, "shared", "a", "paragraph", paragraph("late"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = second.Resolve(ctx, "shared", "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_Load_StoreFailure(t *testing.T) {
	store := &mockSessionStore{}
	store.On("List", mock.Anything).Return(nil, errors.New("unreadable"))

	svc := NewSessionService(store, nil, catalog.Builtin(), validation.New(nil, validation.Options{}))
	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	store.AssertExpectations(t)
}

func TestSessionService_LockWaitHonoursContext(t *testing.T) {
	f := newSessionFixture(t)
	sess := f.create(t, "locked", "a")

	release, err := f.svc.locks.acquire(context.Background(), sess.ID, true)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.svc.Get(ctx, sess.ID, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
