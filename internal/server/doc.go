// Package server provides HTTP routing, middleware, and an in-memory stand-in for the video discussion backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so "GET /videos/{id}" and
// "POST /videos" can share a path and handlers can read wildcards with [http.Request.PathValue].
// Routes may carry extra middleware, which is how [RequireBearer] guards everything except
// /token and /register.
//
// # Stub Backend
//
// [StubBackend] serves the same REST contract as the real API from memory: OAuth2 password-form
// login at /token, JSON registration, video submission and listing, and discussions where every
// posted message gets a canned AI reply. Tokens are HS256 JWTs whose subject is the user id.
//
// The CLI runs it behind `vidtalk serve` for offline use, and tests across the module start it with
// [httptest.NewServer] to exercise the session manager and API client end to end.
package server
