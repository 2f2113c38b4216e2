// Package schema defines the provenance records exchanged between the
// instrumentor, the event buffer, the syncer and tracking backends.
//
// This package contains type definitions plus the helpers every layer needs
// to agree on: the depth-first id slot walk, deep copies, and the canonical
// content digest. It imports nothing internal, so every other package can
// depend on it.
//
// Key design constraints:
//   - Every id field is Unassigned (-1) until a backend acknowledges the event.
//   - Stages are tagged unions with an explicit Kind discriminant.
//   - Field order follows the tracking service schema; JSON tags use snake_case.
//   - Hyperparameters compare as a set, never as a sequence.
package schema
