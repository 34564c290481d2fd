package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func sampleVideo(id int, category string) *models.Video {
	return &models.Video{
		ID:          id,
		YouTubeID:   "yt" + string(rune('a'+id)),
		Title:       "Video",
		Description: "A description",
		Category:    category,
		UserID:      models.IntPtr(1),
		CreatedAt:   models.Timestamp{Time: time.Date(2024, 5, id, 10, 0, 0, 0, time.UTC)},
	}
}

func TestSessionRepository(t *testing.T) {
	t.Run("Empty Load", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		token, err := repo.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "" {
			t.Errorf("expected empty token, got %q", token)
		}
	})

	t.Run("Save Load Overwrite Clear", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.Save("first"); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := repo.Save("second"); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}
		if token, _ := repo.Load(); token != "second" {
			t.Errorf("expected 'second', got %q", token)
		}

		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if token, _ := repo.Load(); token != "" {
			t.Errorf("expected empty token after clear, got %q", token)
		}
		if err := repo.Clear(); err != nil {
			t.Errorf("expected clearing twice to succeed, got %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)
		db.Close()

		if _, err := repo.Load(); !errors.Is(err, shared.ErrTokenStore) {
			t.Errorf("expected ErrTokenStore, got %v", err)
		}
		if err := repo.Save("x"); !errors.Is(err, shared.ErrTokenStore) {
			t.Errorf("expected ErrTokenStore, got %v", err)
		}
		if err := repo.Clear(); !errors.Is(err, shared.ErrTokenStore) {
			t.Errorf("expected ErrTokenStore, got %v", err)
		}
	})
}

func TestVideoRepository(t *testing.T) {
	t.Run("Upsert And Get", func(t *testing.T) {
		repo := NewVideoRepository(setupTestDB(t))
		video := sampleVideo(1, "Science")
		video.Transcription = &models.Transcription{Content: "hello world"}

		if err := repo.Upsert(video); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		got, err := repo.Get(1)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got.Title != video.Title || got.Category != "Science" || got.YouTubeID != video.YouTubeID {
			t.Errorf("unexpected video %+v", got)
		}
		if got.TranscriptText() != "hello world" {
			t.Errorf("expected transcription, got %q", got.TranscriptText())
		}
		if got.UserID == nil || *got.UserID != 1 {
			t.Errorf("expected user id 1, got %v", got.UserID)
		}
		if !got.CreatedAt.Equal(video.CreatedAt.Time) {
			t.Errorf("expected created_at %v, got %v", video.CreatedAt, got.CreatedAt)
		}
	})

	t.Run("Upsert Keeps Transcription", func(t *testing.T) {
		repo := NewVideoRepository(setupTestDB(t))
		video := sampleVideo(1, "Science")
		video.Transcription = &models.Transcription{Content: "kept"}
		repo.Upsert(video)

		refreshed := sampleVideo(1, "History")
		refreshed.Title = "Renamed"
		if err := repo.Upsert(refreshed); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		got, _ := repo.Get(1)
		if got.Title != "Renamed" || got.Category != "History" {
			t.Errorf("expected refreshed fields, got %+v", got)
		}
		if got.TranscriptText() != "kept" {
			t.Errorf("expected transcription to be kept, got %q", got.TranscriptText())
		}
	})

	t.Run("Upsert Rejects Invalid ID", func(t *testing.T) {
		repo := NewVideoRepository(setupTestDB(t))
		if err := repo.Upsert(&models.Video{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewVideoRepository(setupTestDB(t))
		if _, err := repo.Get(42); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewVideoRepository(setupTestDB(t))
		repo.Upsert(sampleVideo(1, "Science"))
		repo.Upsert(sampleVideo(2, "History"))
		repo.Upsert(sampleVideo(3, "Science"))

		tests := []struct {
			name     string
			category string
			wantIDs  []int
		}{
			{"All Newest First", "", []int{3, 2, 1}},
			{"Filtered", "Science", []int{3, 1}},
			{"Normalized Filter", "  Science ", []int{3, 1}},
			{"No Match", "Cooking", nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				videos, err := repo.List(tt.category)
				if err != nil {
					t.Fatalf("failed to list: %v", err)
				}
				if len(videos) != len(tt.wantIDs) {
					t.Fatalf("expected %d videos, got %d", len(tt.wantIDs), len(videos))
				}
				for i, id := range tt.wantIDs {
					if videos[i].ID != id {
						t.Errorf("position %d: expected id %d, got %d", i, id, videos[i].ID)
					}
				}
			})
		}
	})

	t.Run("Categories", func(t *testing.T) {
		repo := NewVideoRepository(setupTestDB(t))
		repo.Upsert(sampleVideo(1, "Science"))
		repo.Upsert(sampleVideo(2, "History"))
		repo.Upsert(sampleVideo(3, "Science"))
		repo.Upsert(sampleVideo(4, ""))

		categories, err := repo.Categories()
		if err != nil {
			t.Fatalf("failed to list categories: %v", err)
		}
		if len(categories) != 2 || categories[0] != "History" || categories[1] != "Science" {
			t.Errorf("unexpected categories %v", categories)
		}
	})

	t.Run("Search", func(t *testing.T) {
		repo := NewVideoRepository(setupTestDB(t))
		a := sampleVideo(1, "")
		a.Title = "Intro to Go"
		b := sampleVideo(2, "")
		b.Description = "All about GOroutines"
		c := sampleVideo(3, "")
		c.Title = "Cooking"
		for _, v := range []*models.Video{a, b, c} {
			repo.Upsert(v)
		}

		matches, err := repo.Search("go")
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(matches) != 2 {
			t.Errorf("expected 2 matches, got %d", len(matches))
		}

		all, _ := repo.Search("  ")
		if len(all) != 3 {
			t.Errorf("expected blank search to return all videos, got %d", len(all))
		}
	})

	t.Run("Delete Cascades Messages", func(t *testing.T) {
		db := setupTestDB(t)
		videos := NewVideoRepository(db)
		messages := NewMessageRepository(db)

		videos.Upsert(sampleVideo(1, ""))
		messages.ReplaceForVideo(1, []models.Message{{ID: 1, Content: "hi", VideoID: 1}})

		if err := videos.Delete(1); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if n, _ := messages.Count(1); n != 0 {
			t.Errorf("expected messages to be removed, got %d", n)
		}
		if err := videos.Delete(1); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss on second delete, got %v", err)
		}
	})

	t.Run("Purge", func(t *testing.T) {
		repo := NewVideoRepository(setupTestDB(t))
		repo.Upsert(sampleVideo(1, ""))
		repo.Upsert(sampleVideo(2, ""))

		if err := repo.Purge(); err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if videos, _ := repo.List(""); len(videos) != 0 {
			t.Errorf("expected empty cache, got %d", len(videos))
		}
	})
}

func TestMessageRepository(t *testing.T) {
	t.Run("Replace And List", func(t *testing.T) {
		db := setupTestDB(t)
		NewVideoRepository(db).Upsert(sampleVideo(1, ""))
		repo := NewMessageRepository(db)

		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		messages := []models.Message{
			{ID: 11, Content: "ai", VideoID: 1, ParentID: models.IntPtr(10), CreatedAt: models.Timestamp{Time: base.Add(time.Second)}},
			{ID: 10, Content: "question", VideoID: 1, UserID: models.IntPtr(2), CreatedAt: models.Timestamp{Time: base}},
		}

		if err := repo.ReplaceForVideo(1, messages); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}

		got, err := repo.ListForVideo(1)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(got))
		}
		if got[0].ID != 10 || got[1].ID != 11 {
			t.Errorf("expected creation order, got %d then %d", got[0].ID, got[1].ID)
		}
		if got[0].FromAI() || !got[1].FromAI() {
			t.Error("expected only the second message to be from the AI")
		}
		if got[1].ParentID == nil || *got[1].ParentID != 10 {
			t.Errorf("expected parent 10, got %v", got[1].ParentID)
		}
	})

	t.Run("Replace Drops Old Messages", func(t *testing.T) {
		db := setupTestDB(t)
		NewVideoRepository(db).Upsert(sampleVideo(1, ""))
		repo := NewMessageRepository(db)

		repo.ReplaceForVideo(1, []models.Message{{ID: 1, Content: "old"}})
		repo.ReplaceForVideo(1, []models.Message{{ID: 2, Content: "new"}})

		got, _ := repo.ListForVideo(1)
		if len(got) != 1 || got[0].Content != "new" {
			t.Errorf("expected only the new message, got %+v", got)
		}
	})

	t.Run("Unknown Video Rolls Back", func(t *testing.T) {
		repo := NewMessageRepository(setupTestDB(t))

		if err := repo.ReplaceForVideo(99, []models.Message{{ID: 1, Content: "orphan"}}); err == nil {
			t.Fatal("expected foreign key error")
		}
		if n, _ := repo.Count(99); n != 0 {
			t.Errorf("expected no messages, got %d", n)
		}
	})

	t.Run("Empty Discussion", func(t *testing.T) {
		repo := NewMessageRepository(setupTestDB(t))
		got, err := repo.ListForVideo(1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no messages, got %d", len(got))
		}
	})
}

func TestSyncRunRepository(t *testing.T) {
	t.Run("Start Update Latest", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))

		first := &models.SyncRun{Category: "Science"}
		if err := repo.Start(first); err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		if first.ID == "" || first.Sequence != 1 || first.Status != models.SyncRunning {
			t.Errorf("unexpected started run %+v", first)
		}

		second := &models.SyncRun{}
		repo.Start(second)
		second.VideosTotal, second.VideosSynced, second.VideosFailed = 3, 2, 1
		second.Finish(time.Now(), nil)

		if err := repo.Update(second); err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		latest, err := repo.Latest()
		if err != nil {
			t.Fatalf("failed to get latest: %v", err)
		}
		if latest.ID != second.ID || latest.Sequence != 2 {
			t.Errorf("expected second run, got %+v", latest)
		}
		if latest.Status != models.SyncPartial || latest.VideosFailed != 1 {
			t.Errorf("unexpected status %s with %d failures", latest.Status, latest.VideosFailed)
		}
		if latest.CompletedAt == nil {
			t.Error("expected completed_at to be set")
		}

		runs, _ := repo.List(0)
		if len(runs) != 2 {
			t.Errorf("expected 2 runs, got %d", len(runs))
		}
	})

	t.Run("Failed Run Keeps Message", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))
		run := &models.SyncRun{}
		repo.Start(run)
		run.Finish(time.Now(), errors.New("list failed"))
		repo.Update(run)

		latest, _ := repo.Latest()
		if latest.Status != models.SyncFailed || latest.ErrorMessage != "list failed" {
			t.Errorf("unexpected run %+v", latest)
		}
	})

	t.Run("Latest Without Runs", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))
		if _, err := repo.Latest(); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("Update Unknown Run", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))
		if err := repo.Update(&models.SyncRun{ID: "missing", Status: models.SyncCompleted}); err == nil {
			t.Error("expected error updating unknown run")
		}
	})
}

func TestCacheAdapter(t *testing.T) {
	db := setupTestDB(t)
	videos := NewVideoRepository(db)
	messages := NewMessageRepository(db)
	adapter := NewCacheAdapter(videos, messages)

	if err := adapter.CacheVideo(*sampleVideo(1, "Science")); err != nil {
		t.Fatalf("failed to cache video: %v", err)
	}
	if err := adapter.CacheDiscussion(1, []models.Message{{ID: 1, Content: "hi"}}); err != nil {
		t.Fatalf("failed to cache discussion: %v", err)
	}
	if n, _ := messages.Count(1); n != 1 {
		t.Errorf("expected 1 message, got %d", n)
	}

	if err := adapter.CacheDiscussion(2, []models.Message{{ID: 2}}); err == nil {
		t.Error("expected error caching discussion for uncached video")
	}
	if err := adapter.CacheVideo(models.Video{}); err == nil {
		t.Error("expected error caching invalid video")
	}
}
