// Package models defines the value types shared by the session manager, the API client, the local cache and the UI.
//
// Session state:
//   - [Session] : the current token and the derived authentication flag
//   - [Credentials], [Registration] : transient login/registration input, never persisted
//   - [TokenResponse] : the access token payload returned by /token and /register
//
// Backend resources, mirroring the REST API's JSON:
//   - [Video] with its optional [Transcription]
//   - [Message] : one discussion entry; a nil UserID marks an AI response
//   - [MessageExchange] : the user message and AI reply returned by POST /messages
//   - [VideoSubmission] : the acknowledgement returned by POST /videos
//
// [Timestamp] accepts the naive ISO-8601 datetimes the backend emits as well as RFC 3339.
package models
