package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
)

// VideoRepository caches videos fetched from the API.
type VideoRepository struct {
	db *sql.DB
}

// NewVideoRepository creates a new VideoRepository with the given database connection
func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Upsert inserts or refreshes a video keyed by its API id.
//
// A video without a transcription keeps any transcription cached earlier, since list
// responses omit it.
func (r *VideoRepository) Upsert(video *models.Video) error {
	if video.ID <= 0 {
		return fmt.Errorf("%w: video id must be positive", shared.ErrInvalidInput)
	}

	var transcription any
	if video.Transcription != nil {
		transcription = video.Transcription.Content
	}

	query := `
		INSERT INTO videos (id, youtube_id, title, description, category, user_id, transcription, created_at, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			youtube_id = excluded.youtube_id,
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			user_id = excluded.user_id,
			transcription = COALESCE(excluded.transcription, videos.transcription),
			created_at = excluded.created_at,
			cached_at = excluded.cached_at
	`

	_, err := r.db.Exec(query,
		video.ID,
		video.YouTubeID,
		video.Title,
		video.Description,
		video.Category,
		nullableInt(video.UserID),
		transcription,
		nullableTime(video.CreatedAt.Time),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}

	return nil
}

// Get retrieves a cached video by id.
func (r *VideoRepository) Get(id int) (*models.Video, error) {
	query := `
		SELECT id, youtube_id, title, description, category, user_id, transcription, created_at
		FROM videos
		WHERE id = ?
	`

	video, err := r.scanOne(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: video %d", shared.ErrCacheMiss, id)
	}
	return video, err
}

// List returns cached videos, newest first. A non-empty category restricts the result.
func (r *VideoRepository) List(category string) ([]models.Video, error) {
	query := `
		SELECT id, youtube_id, title, description, category, user_id, transcription, created_at
		FROM videos
	`
	var args []any

	if category = shared.NormalizeCategory(category); category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating videos: %w", err)
	}

	return videos, nil
}

// Categories returns the distinct non-empty categories in the cache, sorted.
func (r *VideoRepository) Categories() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT category FROM videos WHERE category != '' ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Delete removes a video and, through the foreign key, its cached messages.
func (r *VideoRepository) Delete(id int) error {
	result, err := r.db.Exec("DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: video %d", shared.ErrCacheMiss, id)
	}

	return nil
}

// Purge empties the video cache.
func (r *VideoRepository) Purge() error {
	if _, err := r.db.Exec("DELETE FROM videos"); err != nil {
		return fmt.Errorf("failed to purge videos: %w", err)
	}
	return nil
}

func (r *VideoRepository) scanOne(row rowScanner) (*models.Video, error) {
	var (
		video         models.Video
		userID        sql.NullInt64
		transcription sql.NullString
		createdAt     sql.NullTime
	)

	err := row.Scan(
		&video.ID,
		&video.YouTubeID,
		&video.Title,
		&video.Description,
		&video.Category,
		&userID,
		&transcription,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan video: %w", err)
	}

	video.UserID = intPtr(userID)
	if transcription.Valid {
		video.Transcription = &models.Transcription{Content: transcription.String}
	}
	if createdAt.Valid {
		video.CreatedAt = models.Timestamp{Time: createdAt.Time}
	}

	return &video, nil
}

// searchable reports whether term appears in the video title or description, ignoring case.
func searchable(v models.Video, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(v.Title), term) || strings.Contains(strings.ToLower(v.Description), term)
}

// Search filters cached videos whose title or description contains term.
func (r *VideoRepository) Search(term string) ([]models.Video, error) {
	videos, err := r.List("")
	if err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return videos, nil
	}

	var matches []models.Video
	for _, v := range videos {
		if searchable(v, term) {
			matches = append(matches, v)
		}
	}
	return matches, nil
}
