// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SessionStore: Durable document session persistence
//   - ArtifactStore: Proxy artifact persistence
//   - FragmentCatalog: Templates, fragment schemas and fragment renderers
//   - StyleResolver: Format-agnostic style blocks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Fetcher: Bounded URL fetch for image embedding. Without it, embedding fields fail validation.
//   - SchedulerStore: Scheduler state. Without it, the sweep still runs but keeps no history.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or renderer package
package driven
