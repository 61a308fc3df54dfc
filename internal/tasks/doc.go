// Package tasks reconciles mailbox messages into application records with real-time progress reporting.
//
// # Sync Run
//
// [Reconciler.Run] performs one sync for an owner:
//
//  1. Loads the stored refresh credential and exchanges it for an access token
//  2. Fetches candidate message metadata from the mailbox
//  3. For each message: gate, classify, then create or update the record keyed by (owner, email id)
//  4. Appends a sync log row with the run counters
//
// Anything that fails before the message loop aborts the run with no sync log row.
// Per-message failures, panics included, are logged with the message id and counted as skipped.
// An insert that loses a race against another writer is retried as an update.
//
// # Status Policy
//
// [PolicyLatest] lets the most recently processed message set the status. [PolicyMonotonic]
// keeps the stored status unless [models.CanTransition] allows the move; every other
// classifiable field is still replaced.
//
// # Concurrency
//
// A second Run for an owner whose run is still active fails with [shared.ErrSyncInProgress].
// Runs for different owners proceed independently.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
//
// # Change Events
//
// With [WithPublisher], created and updated records and the completed run are published as
// [events.Event] values. Publish failures are logged and never fail the run.
package tasks
