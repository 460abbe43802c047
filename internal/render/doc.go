// Package render implements the rendering pipeline.
//
// Composition produces one canonical HTML document from a session
// snapshot, its template and a resolved style. Every other format is
// derived from that document by parsing it back, never from session
// state, so all formats agree on content. What each format keeps of the
// canonical styling is decided by the Downgrades table alone.
package render
