package driven

import "context"

// Fetched is the result of a bounded fetch.
type Fetched struct {
	// ContentType is the media type reported by the origin.
	ContentType string

	// Data is the response body, never larger than the requested bound.
	Data []byte
}

// Fetcher retrieves remote resources for embedding.
// Implementations must bound both the response size and the time spent.
type Fetcher interface {
	// Fetch retrieves rawURL, failing if the body exceeds maxBytes.
	Fetch(ctx context.Context, rawURL string, maxBytes int64) (*Fetched, error)
}
