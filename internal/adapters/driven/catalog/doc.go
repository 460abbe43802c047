// Package catalog provides the fragment catalog and style resolver.
//
// The catalog starts from a built-in set of templates and styles and
// overlays definitions loaded from a directory of YAML (.yaml, .yml) or CUE
// (.cue) files. Each load produces an immutable snapshot; Reload and Watch
// swap snapshots atomically so renders already in flight keep the one they
// started with.
package catalog
