// Package domain defines the core business entities for didakt.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Template: A didactic template document (actors, environments, solution)
//   - Environment: A learning environment owning materials, tools and services
//   - Resource: A material, tool or service referenced by a role
//   - SearchNode: A raw node returned by the content repository
//   - Metadata: The normalised record attached to an enriched resource
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
