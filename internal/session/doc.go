// Package session owns the client's authentication state.
//
// A [Manager] holds the bearer token for the current user, persists it through a
// [TokenStore] and restores it at startup without contacting the backend. Login,
// Register and Logout are the only operations that change the state. Login and
// Register report failure as false rather than an error; the last failure is kept
// for display through [Manager.Err].
//
// Stores:
//   - [FileStore] keeps {"token": "..."} in a 0600 JSON file guarded by a lock file
//   - [MemoryStore] keeps the token for the life of the process
//   - repositories.SessionRepository keeps it in the local SQLite cache
package session
