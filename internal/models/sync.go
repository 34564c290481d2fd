package models

import "time"

// SyncStatus is the lifecycle state of a [SyncRun].
type SyncStatus string

const (
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncPartial   SyncStatus = "partial"
	SyncFailed    SyncStatus = "failed"
)

// SyncRun records one pass of copying videos and discussions into the local cache.
type SyncRun struct {
	ID           string
	Sequence     int
	Category     string
	Status       SyncStatus
	VideosTotal  int
	VideosSynced int
	VideosFailed int
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// Finish stamps the run with its outcome. Any failed video makes the run partial.
func (r *SyncRun) Finish(at time.Time, err error) {
	r.CompletedAt = &at
	switch {
	case err != nil:
		r.Status = SyncFailed
		r.ErrorMessage = err.Error()
	case r.VideosFailed > 0:
		r.Status = SyncPartial
	default:
		r.Status = SyncCompleted
	}
}
