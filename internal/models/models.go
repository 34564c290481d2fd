package models

import (
	"strings"
	"time"
)

// Session is the in-memory view of the current authenticated user.
//
// The zero value is the signed-out session.
type Session struct {
	Token string
}

// IsAuthenticated is derived from Token and never stored separately.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// Credentials are the login inputs. The email is sent as the OAuth2 username.
type Credentials struct {
	Email    string
	Password string
}

// Registration holds the inputs for creating an account.
type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the body returned by the token and registration endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Transcription holds the speech-to-text output for a video.
type Transcription struct {
	Content string `json:"content"`
}

// Categories are the labels the backend assigns to submitted videos.
var Categories = []string{
	"Tech News",
	"AI News",
	"Tutorial",
	"Entertainment",
	"Education",
	"Gaming",
	"Music",
	"Other",
}

// Video is a submitted video as returned by the API.
type Video struct {
	ID            int            `json:"id"`
	YouTubeID     string         `json:"youtube_id,omitempty"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	UserID        *int           `json:"user_id,omitempty"`
	CreatedAt     Timestamp      `json:"created_at,omitzero"`
	Transcription *Transcription `json:"transcription,omitempty"`
}

// TranscriptText returns the transcription content or "" when none exists yet.
func (v Video) TranscriptText() string {
	if v.Transcription == nil {
		return ""
	}
	return v.Transcription.Content
}

// Message is a single entry in a video's discussion.
type Message struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	UserID    *int      `json:"user_id"`
	VideoID   int       `json:"video_id"`
	ParentID  *int      `json:"parent_id,omitempty"`
	CreatedAt Timestamp `json:"created_at,omitzero"`
}

// FromAI reports whether the message was produced by the AI responder.
func (m Message) FromAI() bool {
	return m.UserID == nil
}

// Author returns the display label for the message sender.
func (m Message) Author() string {
	if m.FromAI() {
		return "AI Assistant"
	}
	return "User"
}

// MessageExchange is the response to posting a message.
type MessageExchange struct {
	UserMessage Message `json:"user_message"`
	AIResponse  Message `json:"ai_response"`
}

// VideoSubmission acknowledges a submitted video URL.
type VideoSubmission struct {
	Message string `json:"message"`
	VideoID int    `json:"video_id"`
}

// Timestamp wraps [time.Time] to decode datetimes with or without a zone offset.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON accepts RFC 3339 and naive ISO-8601 strings (read as UTC), and null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON emits RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
