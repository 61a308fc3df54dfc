// Package models defines domain entities and persistence interfaces for the jobtrail ingestion pipeline.
//
// The package contains two categories of types:
//
// 1. Ephemeral values produced while syncing a mailbox:
//   - [Message] : Metadata (headers and snippet) fetched for one mailbox message
//   - [Classification] : Employer, role, status and applied date extracted from a [Message]
//   - [RunStats] : Counters summarizing one sync run
//
// 2. Persistent entities:
//   - [Application] : One tracked employer/role application per owner
//   - [SyncLog] : Append-only audit row written after each successful sync
//   - [Credential] : Stored provider refresh credential for an owner
//
// [Status] models the application lifecycle. Transitions in the forward table ([CanTransition])
// are only enforced when the monotonic status policy is enabled; by default each sync overwrites.
package models
