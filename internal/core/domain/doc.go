// Package domain defines the core business entities for docforge.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Template: A document type with a skeleton and declared fragment types
//   - Session: An in-progress document (global parameters + fragment instances)
//   - FragmentInstance: One placed, validated unit of content
//   - Schema: The closed parameter contract of a template or fragment type
//   - Style: Format-agnostic styling directives
//   - Artifact: A rendered snapshot retained for later retrieval
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
