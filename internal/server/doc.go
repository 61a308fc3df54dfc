// Package server provides HTTP routing, middleware, session auth, and the JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method patterns ("POST /api/sync") on [http.ServeMux].
// Middleware added with Use wraps the whole mux so CORS preflight and 404s pass through it. Guard
// middleware wraps only routes not marked public.
//
// # Session Auth
//
// [Authenticator] verifies bearer JWTs with either an HS256 shared secret or a remote JWKS kept
// fresh by a [jwk.Cache]. The token subject is the owner id and is read back with [OwnerFrom].
// [IssueToken] signs HS256 tokens for local use.
//
// # Endpoints
//
//	GET    /healthz                  → {"status":"ok"}
//	POST   /api/sync                 → {"ok":true,"stats":{...}}
//	POST   /api/classify             → classification for {"emailId"} or {"rawHeaders","snippet"}
//	GET    /api/applications         → records filtered by status and source
//	POST   /api/applications         → manual record
//	GET    /api/applications/summary → counts per status
//	PATCH  /api/applications/{id}    → partial update
//	DELETE /api/applications/{id}    → 204
//	GET    /api/sync-logs            → audit rows newest first
//
// # Errors
//
// Failures are written as {"error": message}. [StatusFor] maps the auth family to 401, input errors
// to 400, [shared.ErrNotFound] to 404, a running sync or duplicate to 409, and anything else to 500.
package server
