// Package domain defines the core value types for the bulk email pipeline.
//
// Types in this package are pure value objects with no behavior, no AWS
// dependencies, and no transport concerns. They are the shared language
// between the facade, the bulk service, and the collaborator adapters.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No SDK clients, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
