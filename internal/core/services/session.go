package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
	"github.com/custodia-labs/docforge/internal/logger"
	"github.com/custodia-labs/docforge/internal/validation"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService owns the live document sessions.
//
// Published sessions are immutable: every mutation clones the current
// session, changes the clone, persists it and only then swaps it in, so a
// failed write leaves memory and store in agreement and readers holding an
// older pointer keep a consistent snapshot.
type SessionService struct {
	store     driven.SessionStore
	artifacts driven.ArtifactStore
	catalog   driven.FragmentCatalog
	validator *validation.Validator
	locks     *sessionLocks
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*domain.Session
	aliases  map[string]map[string]string // group -> alias -> session ID
}

// NewSessionService creates a session service. artifacts may be nil when
// proxy artifacts are not retained.
func NewSessionService(
	store driven.SessionStore,
	artifacts driven.ArtifactStore,
	catalog driven.FragmentCatalog,
	validator *validation.Validator,
) *SessionService {
	return &SessionService{
		store:     store,
		artifacts: artifacts,
		catalog:   catalog,
		validator: validator,
		locks:     newSessionLocks(),
		now:       func() time.Time { return time.Now().UTC() },
		sessions:  make(map[string]*domain.Session),
		aliases:   make(map[string]map[string]string),
	}
}

// Load restores every persisted ACTIVE session. Historical parameters are
// not re-validated.
func (s *SessionService) Load(ctx context.Context) (int, error) {
	stored, err := s.store.List(ctx)
	if err != nil {
		return 0, domain.ErrStorageFailure.With("loading sessions", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	loaded := 0
	for i := range stored {
		sess := &stored[i]
		if sess.Status != domain.SessionActive {
			continue
		}
		sess.SortFragments()
		if !sess.Consistent() {
			logger.Warn("skipping inconsistent session %s", sess.ID)
			continue
		}
		s.sessions[sess.ID] = sess
		s.index(sess.Group)[sess.Alias] = sess.ID
		loaded++
	}
	logger.Info("loaded %d sessions", loaded)
	return loaded, nil
}

// index returns the alias index of group. Callers hold s.mu for writing.
func (s *SessionService) index(group string) map[string]string {
	idx := s.aliases[group]
	if idx == nil {
		idx = make(map[string]string)
		s.aliases[group] = idx
	}
	return idx
}

func normaliseGroup(group string) string {
	if group == "" {
		return domain.PublicGroup
	}
	return group
}

// Create starts a new session for templateID under alias.
func (s *SessionService) Create(ctx context.Context, templateID, alias, group string) (*domain.Session, error) {
	group = normaliseGroup(group)
	if !domain.ValidAlias(alias) {
		return nil, domain.ErrInvalidAlias.With(fmt.Sprintf(
			"alias must be %d-%d characters of letters, digits, '-' or '_'",
			domain.AliasMinLength, domain.AliasMaxLength), nil)
	}

	t, err := s.catalog.Template(ctx, templateID)
	if err != nil || !t.VisibleTo(group) {
		return nil, domain.ErrUnknownTemplate.With("unknown template: "+templateID, nil)
	}

	now := s.now()
	sess := &domain.Session{
		ID:         uuid.NewString(),
		Alias:      alias,
		TemplateID: t.ID,
		Group:      group,
		Globals:    map[string]any{},
		Status:     domain.SessionActive,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}

	// Reserve the alias before the write so concurrent creates cannot both pass.
	s.mu.Lock()
	idx := s.index(group)
	if _, taken := idx[alias]; taken {
		s.mu.Unlock()
		return nil, domain.ErrAliasConflict.With("alias already in use: "+alias, nil)
	}
	idx[alias] = sess.ID
	s.mu.Unlock()

	if err := s.store.Put(ctx, sess); err != nil {
		s.mu.Lock()
		delete(s.index(group), alias)
		s.mu.Unlock()
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAliasConflict.With("alias already in use: "+alias, nil)
		}
		return nil, domain.ErrStorageFailure.With("persisting session", err)
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	logger.Debug("created session %s (%s/%s) from template %s", sess.ID, group, alias, t.ID)
	return sess.Clone(), nil
}

// Resolve returns the session ID for ref within group. A session owned by
// another group is reported exactly like a missing one.
func (s *SessionService) Resolve(_ context.Context, ref, group string) (string, error) {
	return s.resolve(ref, normaliseGroup(group))
}

func (s *SessionService) resolve(ref, group string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[ref]; ok && sess.Group == group {
		return sess.ID, nil
	}
	if id, ok := s.aliases[group][ref]; ok {
		if _, live := s.sessions[id]; live {
			return id, nil
		}
	}
	return "", domain.ErrSessionNotFound
}

func (s *SessionService) current(id string) *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// withSession resolves ref, takes the session lock and re-checks ownership
// before calling fn with the published session.
func (s *SessionService) withSession(ctx context.Context, ref, group string, write bool, fn func(*domain.Session) error) error {
	group = normaliseGroup(group)
	id, err := s.resolve(ref, group)
	if err != nil {
		return err
	}

	release, err := s.locks.acquire(ctx, id, write)
	if err != nil {
		return fmt.Errorf("waiting for session %s: %w", ref, err)
	}
	defer release()

	cur := s.current(id)
	if cur == nil || cur.Group != group {
		return domain.ErrSessionNotFound
	}
	return fn(cur)
}

func (s *SessionService) template(ctx context.Context, sess *domain.Session) (*domain.Template, error) {
	t, err := s.catalog.Template(ctx, sess.TemplateID)
	if err != nil {
		return nil, domain.ErrUnknownTemplate.With("unknown template: "+sess.TemplateID, err)
	}
	return t, nil
}

// maxStaleRetries bounds how often a mutation is re-applied after another
// process wrote the same session first.
const maxStaleRetries = 3

// mutate applies fn to a clone of the session and publishes it once the
// store has accepted it. When the store reports a newer version the session
// is reloaded and fn runs again on the fresh copy.
func (s *SessionService) mutate(ctx context.Context, ref, group string, fn func(*domain.Session, *domain.Template) error) error {
	return s.withSession(ctx, ref, group, true, func(cur *domain.Session) error {
		t, err := s.template(ctx, cur)
		if err != nil {
			return err
		}

		for attempt := 0; ; attempt++ {
			next := cur.Clone()
			if err := fn(next, t); err != nil {
				return err
			}
			next.ID, next.Group, next.Alias = cur.ID, cur.Group, cur.Alias
			next.UpdatedAt = s.now()
			next.Version = cur.Version + 1

			err := s.store.Put(ctx, next)
			if err == nil {
				s.mu.Lock()
				s.sessions[next.ID] = next
				s.mu.Unlock()
				return nil
			}
			if !errors.Is(err, domain.ErrStale) || attempt == maxStaleRetries {
				return domain.ErrStorageFailure.With("persisting session", err)
			}

			logger.Debug("session %s: version %d is stale, reloading", cur.ID, cur.Version)
			if cur, err = s.reload(ctx, cur); err != nil {
				return err
			}
		}
	})
}

// reload replaces the cached copy of cur with the stored one. A session
// that was deleted or closed elsewhere is evicted and reported missing.
// Callers hold the session's write lock.
func (s *SessionService) reload(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
	fresh, err := s.store.Get(ctx, cur.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.evict(cur)
		return nil, domain.ErrSessionNotFound
	case err != nil:
		return nil, domain.ErrStorageFailure.With("reloading session", err)
	}
	fresh.SortFragments()
	if fresh.Status != domain.SessionActive || fresh.Group != cur.Group || !fresh.Consistent() {
		s.evict(cur)
		return nil, domain.ErrSessionNotFound
	}

	s.mu.Lock()
	s.sessions[fresh.ID] = fresh
	s.mu.Unlock()
	return fresh, nil
}

// evict drops sess from the cache and the alias index.
func (s *SessionService) evict(sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.ID)
	if idx := s.aliases[sess.Group]; idx[sess.Alias] == sess.ID {
		delete(idx, sess.Alias)
	}
}

// whileLive runs fn under the session's read lock after confirming the
// session still exists in group. Abort takes the write lock, so nothing fn
// writes for the session can outlive an abort.
func (s *SessionService) whileLive(ctx context.Context, id, group string, fn func() error) error {
	group = normaliseGroup(group)
	release, err := s.locks.acquire(ctx, id, false)
	if err != nil {
		return fmt.Errorf("waiting for session %s: %w", id, err)
	}
	defer release()

	cur := s.current(id)
	if cur == nil || cur.Group != group {
		return domain.ErrSessionNotFound
	}
	return fn()
}

// Get returns a snapshot of the session.
func (s *SessionService) Get(ctx context.Context, ref, group string) (*domain.Session, error) {
	var out *domain.Session
	err := s.withSession(ctx, ref, group, false, func(cur *domain.Session) error {
		out = cur.Clone()
		return nil
	})
	return out, err
}

// List returns the group's active sessions ordered by alias.
func (s *SessionService) List(_ context.Context, group string) ([]domain.Session, error) {
	group = normaliseGroup(group)

	s.mu.RLock()
	out := make([]domain.Session, 0, len(s.aliases[group]))
	for _, sess := range s.sessions {
		if sess.Group == group {
			out = append(out, *sess.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out, nil
}

// SetGlobals validates params against the template's global schema and
// replaces the whole global parameter map.
func (s *SessionService) SetGlobals(ctx context.Context, ref, group string, params map[string]any) error {
	return s.mutate(ctx, ref, group, func(next *domain.Session, t *domain.Template) error {
		normalised, err := s.validator.ValidateAs(ctx, t.GlobalSchema, params, domain.ErrInvalidParameters)
		if err != nil {
			return err
		}
		next.Globals = normalised
		logger.Debug("session %s: replaced globals (%d keys)", next.ID, len(normalised))
		return nil
	})
}

// AddFragment validates params and appends a new fragment instance.
func (s *SessionService) AddFragment(ctx context.Context, ref, group, fragmentID string, params map[string]any) (string, error) {
	var instanceID string
	err := s.mutate(ctx, ref, group, func(next *domain.Session, t *domain.Template) error {
		inst, err := s.newInstance(ctx, next, t, fragmentID, params)
		if err != nil {
			return err
		}
		next.Fragments = append(next.Fragments, inst)
		instanceID = inst.InstanceID
		logger.Debug("session %s: added %s as %s (seq %d)", next.ID, fragmentID, inst.InstanceID, inst.Seq)
		return nil
	})
	return instanceID, err
}

// ReplaceFragment removes instanceID and appends a new instance of the same
// fragment type with params, under one lock. The replacement gets a new
// instance ID and sequence number; on any failure the session is unchanged.
func (s *SessionService) ReplaceFragment(ctx context.Context, ref, group, instanceID string, params map[string]any) (string, error) {
	var newID string
	err := s.mutate(ctx, ref, group, func(next *domain.Session, t *domain.Template) error {
		old, ok := next.Fragment(instanceID)
		if !ok {
			return domain.ErrFragmentNotFound.With("fragment not found: "+instanceID, nil)
		}
		inst, err := s.newInstance(ctx, next, t, old.FragmentID, params)
		if err != nil {
			return err
		}
		next.Fragments = append(removeInstance(next.Fragments, instanceID), inst)
		newID = inst.InstanceID
		logger.Debug("session %s: replaced %s with %s", next.ID, instanceID, newID)
		return nil
	})
	return newID, err
}

// newInstance validates params for fragmentID and allocates the next sequence number.
func (s *SessionService) newInstance(ctx context.Context, next *domain.Session, t *domain.Template,
	fragmentID string, params map[string]any) (domain.FragmentInstance, error) {
	ft, ok := t.FragmentType(fragmentID)
	if !ok {
		return domain.FragmentInstance{}, domain.ErrInvalidFragment.WithFields([]domain.FieldError{{
			Field:   "fragment_id",
			Message: fmt.Sprintf("%q is not declared by template %s", fragmentID, t.ID),
		}})
	}

	normalised, err := s.validator.ValidateAs(ctx, ft.Schema, params, domain.ErrInvalidFragment)
	if err != nil {
		return domain.FragmentInstance{}, err
	}

	renderer, err := s.catalog.Renderer(ctx, t.ID, fragmentID)
	if err != nil {
		return domain.FragmentInstance{}, domain.ErrInvalidFragment.With("no renderer for fragment "+fragmentID, err)
	}
	if checker, ok := renderer.(driven.ParamChecker); ok {
		if fields := checker.Check(normalised); len(fields) > 0 {
			return domain.FragmentInstance{}, domain.ErrInvalidFragment.WithFields(fields)
		}
	}

	inst := domain.FragmentInstance{
		InstanceID: uuid.NewString(),
		FragmentID: fragmentID,
		Params:     normalised,
		Seq:        next.NextSeq,
		CreatedAt:  s.now(),
	}
	next.NextSeq++
	return inst, nil
}

// RemoveFragment removes a fragment instance. Remaining sequence numbers are kept.
func (s *SessionService) RemoveFragment(ctx context.Context, ref, group, instanceID string) error {
	return s.mutate(ctx, ref, group, func(next *domain.Session, _ *domain.Template) error {
		if _, ok := next.Fragment(instanceID); !ok {
			return domain.ErrFragmentNotFound.With("fragment not found: "+instanceID, nil)
		}
		next.Fragments = removeInstance(next.Fragments, instanceID)
		logger.Debug("session %s: removed %s", next.ID, instanceID)
		return nil
	})
}

func removeInstance(list []domain.FragmentInstance, instanceID string) []domain.FragmentInstance {
	out := make([]domain.FragmentInstance, 0, len(list))
	for _, f := range list {
		if f.InstanceID != instanceID {
			out = append(out, f)
		}
	}
	return out
}

// ListFragments returns the fragment instances in sequence order.
func (s *SessionService) ListFragments(ctx context.Context, ref, group string) ([]domain.FragmentInstance, error) {
	var out []domain.FragmentInstance
	err := s.withSession(ctx, ref, group, false, func(cur *domain.Session) error {
		out = cur.Clone().Fragments
		return nil
	})
	return out, err
}

// Status reports parameter completeness, fragment count and readiness.
func (s *SessionService) Status(ctx context.Context, ref, group string) (*domain.SessionReport, error) {
	var report domain.SessionReport
	err := s.withSession(ctx, ref, group, false, func(cur *domain.Session) error {
		t, err := s.template(ctx, cur)
		if err != nil {
			return err
		}
		report = cur.Report(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Abort deletes the session, its persisted state and its proxy artifacts.
// Aborting a session that does not exist (or no longer exists) succeeds.
func (s *SessionService) Abort(ctx context.Context, ref, group string) error {
	err := s.withSession(ctx, ref, group, true, func(cur *domain.Session) error {
		if s.artifacts != nil {
			n, err := s.artifacts.DeleteBySession(ctx, cur.ID)
			if err != nil {
				return domain.ErrStorageFailure.With("deleting artifacts", err)
			}
			logger.Debug("session %s: deleted %d artifacts", cur.ID, n)
		}
		if err := s.store.Delete(ctx, cur.ID); err != nil {
			return domain.ErrStorageFailure.With("deleting session", err)
		}

		s.evict(cur)
		logger.Info("aborted session %s (%s/%s)", cur.ID, cur.Group, cur.Alias)
		return nil
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	return err
}
