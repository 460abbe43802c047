package domain

import "time"

// Artifact is a rendered snapshot retained for retrieval by GUID.
type Artifact struct {
	// GUID is the opaque identifier handed to the caller.
	GUID string

	// SessionID is the session the artifact was rendered from.
	SessionID string

	// Group is copied from the session at render time.
	Group string

	// Format is the output format of Data.
	Format Format

	// StyleID is the style the artifact was rendered with.
	StyleID string

	// Data is the rendered payload.
	Data []byte

	// CreatedAt is when the artifact was stored.
	CreatedAt time.Time

	// ExpiresAt is optional; zero means no per-artifact expiry.
	ExpiresAt time.Time
}

// Expired reports whether the artifact is past its expiry at now.
func (a *Artifact) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// ArtifactInfo is an artifact without its payload, for listings.
type ArtifactInfo struct {
	GUID      string
	SessionID string
	Group     string
	Format    Format
	StyleID   string
	Size      int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Info returns the payload-free view of the artifact.
func (a *Artifact) Info() ArtifactInfo {
	return ArtifactInfo{
		GUID:      a.GUID,
		SessionID: a.SessionID,
		Group:     a.Group,
		Format:    a.Format,
		StyleID:   a.StyleID,
		Size:      len(a.Data),
		CreatedAt: a.CreatedAt,
		ExpiresAt: a.ExpiresAt,
	}
}
