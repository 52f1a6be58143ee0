// Package session provides conversation history persistence with JSON files.
//
// A session represents a conversation context containing ordered messages
// exchanged between user and model. The [FileStore] handles persistence
// while [Manager] tracks the in-memory working copy the agent mutates.
//
// Key operations:
//
//   - Session lifecycle: [Manager.Create], [Manager.Load], [Manager.Delete]
//   - Message persistence: [Manager.Append], [Manager.Persist]
//   - Listing: [FileStore.List] (newest first, corrupt files skipped)
//
// # Determinism
//
// [FileStore.Save] serializes with a stable field order and no
// save-time metadata, so persisting an unchanged session twice
// produces byte-identical files.
//
// # Local State
//
// [SaveCurrentSessionID] and [LoadCurrentSessionID] persist the active
// session ID to a state file inside the history directory, so an
// interrupted chat can be resumed.
package session
