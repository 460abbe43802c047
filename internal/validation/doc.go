// Package validation type-checks and normalises parameter maps against a
// domain.Schema before they enter a session.
//
// The validator is generic over any schema: it rejects undeclared keys,
// applies defaults, enforces type, range, length, pattern and enum
// constraints, and, for URL fields declared with Embed, fetches the
// resource through a bounded driven.Fetcher and replaces the URL with a
// data URI. It never mutates session state.
package validation
