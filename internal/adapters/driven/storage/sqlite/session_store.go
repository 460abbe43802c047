package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

const sessionColumns = `id, alias, grp, template_id, globals, next_seq, status, created_at, updated_at, version`

// Get retrieves a session by ID.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return s.one(ctx, row)
}

// GetByAlias retrieves a session by alias within a group.
func (s *sessionStore) GetByAlias(ctx context.Context, group, alias string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE grp = ? AND alias = ?`, group, alias)
	return s.one(ctx, row)
}

func (s *sessionStore) one(ctx context.Context, row *sql.Row) (*domain.Session, error) {
	sess, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	frags, err := s.fragments(ctx, `WHERE session_id = ?`, sess.ID)
	if err != nil {
		return nil, err
	}
	sess.Fragments = frags[sess.ID]
	return sess, nil
}

// Put writes a session and its fragment list in one transaction.
// A session at version 1 (or 0) is inserted; a later version replaces the
// row only if the stored version is exactly one behind, otherwise Put
// returns domain.ErrStale.
func (s *sessionStore) Put(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}

	globals, err := json.Marshal(session.Globals)
	if err != nil {
		return fmt.Errorf("marshalling globals: %w", err)
	}
	if session.Globals == nil {
		globals = []byte("{}")
	}
	version := max(session.Version, 1)

	err = s.store.withTx(ctx, func(tx *sql.Tx) error {
		if version == 1 {
			if err := s.insert(ctx, tx, session, globals); err != nil {
				return err
			}
		} else {
			res, err := tx.ExecContext(ctx, `
				UPDATE sessions SET
					alias = ?, grp = ?, template_id = ?, globals = ?,
					next_seq = ?, status = ?, updated_at = ?, version = ?
				WHERE id = ? AND version = ?
			`, session.Alias, session.Group, session.TemplateID, string(globals),
				session.NextSeq, string(session.Status), unixNano(session.UpdatedAt), version,
				session.ID, version-1)
			if err != nil {
				if isConstraint(err) {
					return fmt.Errorf("%w: alias %q in group %q", domain.ErrAlreadyExists, session.Alias, session.Group)
				}
				return fmt.Errorf("saving session: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("%w: session %s is not at version %d", domain.ErrStale, session.ID, version-1)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM fragments WHERE session_id = ?`, session.ID); err != nil {
			return fmt.Errorf("clearing fragments: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO fragments (session_id, instance_id, fragment_id, params, seq, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing fragment insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range session.Fragments {
			params, err := json.Marshal(f.Params)
			if err != nil {
				return fmt.Errorf("marshalling params of %s: %w", f.InstanceID, err)
			}
			if _, err := stmt.ExecContext(ctx, session.ID, f.InstanceID, f.FragmentID,
				string(params), f.Seq, unixNano(f.CreatedAt)); err != nil {
				return fmt.Errorf("saving fragment %s: %w", f.InstanceID, err)
			}
		}
		return nil
	})
	return err
}

func (s *sessionStore) insert(ctx context.Context, tx *sql.Tx, session *domain.Session, globals []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, alias, grp, template_id, globals, next_seq, status, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`, session.ID, session.Alias, session.Group, session.TemplateID, string(globals),
		session.NextSeq, string(session.Status),
		unixNano(session.CreatedAt), unixNano(session.UpdatedAt))
	if err == nil {
		return nil
	}
	if !isConstraint(err) {
		return fmt.Errorf("saving session: %w", err)
	}
	var exists int
	if qerr := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, session.ID).Scan(&exists); qerr != nil {
		return fmt.Errorf("saving session: %w", qerr)
	}
	if exists > 0 {
		return fmt.Errorf("%w: session %s already written", domain.ErrStale, session.ID)
	}
	return fmt.Errorf("%w: alias %q in group %q", domain.ErrAlreadyExists, session.Alias, session.Group)
}

// Delete removes a session; fragments follow through the foreign key.
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fragments WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("deleting fragments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
		return nil
	})
}

// ListByGroup returns the sessions of one group ordered by alias.
func (s *sessionStore) ListByGroup(ctx context.Context, group string) ([]domain.Session, error) {
	return s.list(ctx, `WHERE grp = ? ORDER BY alias`, group)
}

// List returns every persisted session ordered by ID.
func (s *sessionStore) List(ctx context.Context) ([]domain.Session, error) {
	return s.list(ctx, `ORDER BY id`)
}

func (s *sessionStore) list(ctx context.Context, clause string, args ...any) ([]domain.Session, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	var frags map[string][]domain.FragmentInstance
	if len(args) == 0 {
		frags, err = s.fragments(ctx, ``)
	} else {
		frags, err = s.fragments(ctx, `WHERE session_id IN (SELECT id FROM sessions `+clause+`)`, args...)
	}
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Fragments = frags[sessions[i].ID]
	}
	return sessions, nil
}

// fragments loads fragment rows matching clause, grouped by session and ordered by seq.
func (s *sessionStore) fragments(ctx context.Context, clause string, args ...any) (map[string][]domain.FragmentInstance, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT session_id, instance_id, fragment_id, params, seq, created_at
		FROM fragments `+clause+` ORDER BY session_id, seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fragments: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.FragmentInstance)
	for rows.Next() {
		var (
			sessionID string
			params    string
			created   int64
			f         domain.FragmentInstance
		)
		if err := rows.Scan(&sessionID, &f.InstanceID, &f.FragmentID, &params, &f.Seq, &created); err != nil {
			return nil, fmt.Errorf("scanning fragment: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &f.Params); err != nil {
			return nil, fmt.Errorf("decoding params of %s: %w", f.InstanceID, err)
		}
		f.CreatedAt = fromUnixNano(created)
		out[sessionID] = append(out[sessionID], f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fragments: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		sess             domain.Session
		globals, status  string
		created, updated int64
	)
	if err := row.Scan(&sess.ID, &sess.Alias, &sess.Group, &sess.TemplateID, &globals,
		&sess.NextSeq, &status, &created, &updated, &sess.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if err := json.Unmarshal([]byte(globals), &sess.Globals); err != nil {
		return nil, fmt.Errorf("decoding globals of %s: %w", sess.ID, err)
	}
	if sess.Globals == nil {
		sess.Globals = map[string]any{}
	}
	sess.Status = domain.SessionStatus(status)
	sess.CreatedAt = fromUnixNano(created)
	sess.UpdatedAt = fromUnixNano(updated)
	return &sess, nil
}
