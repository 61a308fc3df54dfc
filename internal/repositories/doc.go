// Package repositories implements SQL persistence for applications, sync logs, and credentials.
//
// Queries are written with "?" placeholders and rebound for PostgreSQL, so every
// repository works against both the SQLite and lib/pq drivers.
//
// Key Implementations:
//   - [ApplicationRepository] : Tracked applications with per-owner email deduplication
//   - [SyncLogRepository] : Append-only audit rows for sync runs
//   - [CredentialRepository] : Refresh credentials keyed by owner and provider
//
// Lookups that find nothing return errors wrapping [shared.ErrNotFound]. Inserts that
// hit the (user_id, email_id) unique index return errors wrapping [shared.ErrConflict].
package repositories
