// Package driving defines interfaces that external actors (CLI, MCP) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// Every long-running operation takes a context.Context as its cancellation
// token and a domain.StatusFunc as its status sink. The caller owns both.
//
// Implementations of these interfaces live in internal/core/services.
package driving
