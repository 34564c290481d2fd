// Package tasks runs long video operations against the backend with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines two operations:
//
//  1. [SyncEngine.Sync] : Copy videos and discussions into the local cache
//     - Lists videos (optionally by category)
//     - Fetches each video with its transcription and its messages on a worker pool
//     - Stores both through a [VideoCacher] and records the run through a [RunRecorder]
//
//  2. [SyncEngine.Export] : Write many videos to disk
//     - Fetches each video and its discussion under a rate limit
//     - Writes JSON, CSV, Markdown or text files on a worker pool
//     - Summarizes the results in export_manifest.json
//
// # Progress Reporting
//
// Both operations report through a [ProgressUpdate] channel. Sends use select with default so a
// slow or absent reader never stalls the work; callers that want every update should buffer the channel.
//
// # Failures
//
// A video that fails to fetch, cache or write is recorded in the result and the rest continue.
// Only a failure to list videos fails the whole operation.
package tasks
