package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/vidtalk/internal/models"
)

// MessageRepository caches the discussion for each video.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new MessageRepository with the given database connection
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ReplaceForVideo swaps the cached discussion for videoID with messages in one transaction.
//
// The video must already be cached.
func (r *MessageRepository) ReplaceForVideo(videoID int, messages []models.Message) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE video_id = ?", videoID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (id, video_id, user_id, parent_id, content, created_at, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		_, err := stmt.Exec(
			m.ID,
			videoID,
			nullableInt(m.UserID),
			nullableInt(m.ParentID),
			m.Content,
			nullableTime(m.CreatedAt.Time),
		)
		if err != nil {
			return fmt.Errorf("failed to insert message %d: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}

	return nil
}

// ListForVideo returns the cached discussion for videoID in creation order.
func (r *MessageRepository) ListForVideo(videoID int) ([]models.Message, error) {
	query := `
		SELECT id, video_id, user_id, parent_id, content, created_at
		FROM messages
		WHERE video_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			m         models.Message
			userID    sql.NullInt64
			parentID  sql.NullInt64
			createdAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.VideoID, &userID, &parentID, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.UserID = intPtr(userID)
		m.ParentID = intPtr(parentID)
		if createdAt.Valid {
			m.CreatedAt = models.Timestamp{Time: createdAt.Time}
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// Count returns the number of cached messages for videoID.
func (r *MessageRepository) Count(videoID int) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM messages WHERE video_id = ?", videoID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}
