// Package services implements the Google clients a mailbox sync depends on.
//
// # Token Exchange
//
// [GoogleTokenExchanger] performs an OAuth2 refresh_token grant against the Google token
// endpoint with client credentials sent in the form body. A 400 or 401 from the endpoint
// means the stored credential was revoked or expired and is reported as [shared.ErrAuthFailed].
//
// # Message Fetching
//
// [GmailFetcher] uses the Gmail v1 API with a static bearer token. It lists message ids for
// the configured search query, capped and paginated, then fetches header metadata for the
// first few ids one request at a time through a [rate.Limiter]. Message bodies are never
// requested.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAuthFailed] : Credential rejected, re-authentication required
//   - [shared.ErrNotAuthenticated] : No access token supplied
//   - [shared.ErrNotFound] : Message id unknown to the mailbox
//   - [shared.ErrProvider] : Any other upstream failure
package services
