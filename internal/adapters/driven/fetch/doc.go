// Package fetch retrieves remote images for embedding. Requests are
// throttled with a token bucket and bounded in size and time.
package fetch
