// Package services implements the HTTP client for the video discussion REST API.
//
// # Request Building
//
// [APIService.NewRequest] is the single place requests are built. It takes the caller's
// [models.Session] snapshot as a parameter and attaches "Authorization: Bearer <token>" only when
// that snapshot holds a token. Nothing is stored on the client between calls, so signing out
// cannot leave a stale header behind.
//
// # Authentication
//
// [APIService.Login] performs the OAuth2 resource-owner password grant against /token using
// [oauth2.Config.PasswordCredentialsToken]; the email is sent as the username.
// [APIService.Register] posts JSON to /register. Both return a [models.TokenResponse].
// Neither touches session state; that belongs to the session package.
//
// # Client
//
// [Client] pairs an [APIService] with a [SessionReader] and implements [VideoService].
// Every call snapshots the session first and fails with [shared.ErrNotAuthenticated] before
// any network I/O when no token is held.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which unwraps to [shared.ErrAPIRequest].
// A 401 also matches [shared.ErrNotAuthenticated] and a 404 matches [shared.ErrVideoNotFound].
// Undecodable bodies wrap [shared.ErrMalformedResponse].
package services
