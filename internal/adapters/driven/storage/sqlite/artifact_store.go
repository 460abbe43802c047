package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// artifactStore implements driven.ArtifactStore.
type artifactStore struct {
	store *Store
}

var _ driven.ArtifactStore = (*artifactStore)(nil)

// Save stores a new artifact. A duplicate GUID is rejected.
func (s *artifactStore) Save(ctx context.Context, a *domain.Artifact) error {
	if a == nil || a.GUID == "" {
		return domain.ErrInvalidInput
	}
	data := a.Data
	if data == nil {
		data = []byte{}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO artifacts (guid, session_id, grp, format, style_id, data, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.GUID, a.SessionID, a.Group, string(a.Format), a.StyleID, data,
		unixNano(a.CreatedAt), nullableUnixNano(a.ExpiresAt))
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("%w: artifact %s", domain.ErrAlreadyExists, a.GUID)
		}
		return fmt.Errorf("saving artifact: %w", err)
	}
	return nil
}

// Get retrieves an artifact by GUID.
func (s *artifactStore) Get(ctx context.Context, guid string) (*domain.Artifact, error) {
	var (
		a       domain.Artifact
		format  string
		created int64
		expires sql.NullInt64
	)
	err := s.store.db.QueryRowContext(ctx, `
		SELECT guid, session_id, grp, format, style_id, data, created_at, expires_at
		FROM artifacts WHERE guid = ?
	`, guid).Scan(&a.GUID, &a.SessionID, &a.Group, &format, &a.StyleID, &a.Data, &created, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	a.Format = domain.Format(format)
	a.CreatedAt = fromUnixNano(created)
	a.ExpiresAt = fromNullableUnixNano(expires)
	return &a, nil
}

// DeleteBySession removes every artifact rendered from a session.
func (s *artifactStore) DeleteBySession(ctx context.Context, sessionID string) (int, error) {
	return s.delete(ctx, `DELETE FROM artifacts WHERE session_id = ?`, sessionID)
}

// DeleteOlderThan removes artifacts created before cutoff.
func (s *artifactStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return s.delete(ctx, `DELETE FROM artifacts WHERE created_at < ?`, unixNano(cutoff))
}

// DeleteExpired removes artifacts whose expiry is set and not after now.
func (s *artifactStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return s.delete(ctx, `DELETE FROM artifacts WHERE expires_at IS NOT NULL AND expires_at <= ?`, unixNano(now))
}

func (s *artifactStore) delete(ctx context.Context, query string, args ...any) (int, error) {
	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting artifacts: %w", err)
	}
	return rowsAffected(res)
}

// ListByGroup returns a group's artifacts without payloads, newest first.
func (s *artifactStore) ListByGroup(ctx context.Context, group string) ([]domain.ArtifactInfo, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT guid, session_id, grp, format, style_id, length(data), created_at, expires_at
		FROM artifacts WHERE grp = ?
		ORDER BY created_at DESC, guid ASC
	`, group)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	infos := make([]domain.ArtifactInfo, 0)
	for rows.Next() {
		var (
			info    domain.ArtifactInfo
			format  string
			created int64
			expires sql.NullInt64
		)
		if err := rows.Scan(&info.GUID, &info.SessionID, &info.Group, &format, &info.StyleID,
			&info.Size, &created, &expires); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		info.Format = domain.Format(format)
		info.CreatedAt = fromUnixNano(created)
		info.ExpiresAt = fromNullableUnixNano(expires)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating artifacts: %w", err)
	}
	return infos, nil
}
