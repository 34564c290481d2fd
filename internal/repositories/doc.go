// Package repositories implements the SQLite local cache.
//
// Key Implementations:
//   - [VideoRepository] : videos with their transcriptions, filterable by category
//   - [MessageRepository] : per-video discussions, replaced wholesale on each sync
//   - [SyncRunRepository] : history of sync runs with per-run counts
//   - [SessionRepository] : key/value token store usable by session.Manager
//   - [CacheAdapter] : adapts the video and message repositories for the sync task
//
// Sync runs carry a sequence number so `cache status` can show "run #12" independent of UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
