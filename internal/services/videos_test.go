package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
)

func TestVideoEndpoints(t *testing.T) {
	session := models.Session{Token: "tok"}

	t.Run("Videos", func(t *testing.T) {
		tests := []struct {
			name     string
			category string
			want     string
		}{
			{"All", "", ""},
			{"Filtered", "Science", "Science"},
			{"Normalized", "  Machine   Learning ", "Machine Learning"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if r.URL.Path != "/videos" {
						t.Errorf("expected /videos, got %s", r.URL.Path)
					}
					if got := r.URL.Query().Get("category"); got != tt.want {
						t.Errorf("expected category %q, got %q", tt.want, got)
					}
					if r.Header.Get("Authorization") != "Bearer tok" {
						t.Errorf("expected bearer, got %q", r.Header.Get("Authorization"))
					}
					writeJSON(w, http.StatusOK, []map[string]any{
						{"id": 1, "title": "First", "category": "Science", "created_at": "2024-05-01T10:00:00"},
					})
				}))
				defer server.Close()

				videos, err := NewAPIService(server.URL, nil).Videos(context.Background(), session, tt.category)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if len(videos) != 1 || videos[0].Title != "First" {
					t.Errorf("unexpected videos %+v", videos)
				}
			})
		}
	})

	t.Run("Video", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/videos/7":
				writeJSON(w, http.StatusOK, map[string]any{
					"id": 7, "title": "Seven", "transcription": map[string]string{"content": "hello"},
				})
			default:
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Video not found"})
			}
		}))
		defer server.Close()

		api := NewAPIService(server.URL, nil)

		t.Run("Found", func(t *testing.T) {
			video, err := api.Video(context.Background(), session, 7)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if video.TranscriptText() != "hello" {
				t.Errorf("expected transcript 'hello', got %q", video.TranscriptText())
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			if _, err := api.Video(context.Background(), session, 8); !errors.Is(err, shared.ErrVideoNotFound) {
				t.Errorf("expected ErrVideoNotFound, got %v", err)
			}
		})

		t.Run("Invalid ID", func(t *testing.T) {
			if _, err := api.Video(context.Background(), session, 0); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("CreateVideo", func(t *testing.T) {
		t.Run("Category Optional", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				json.NewDecoder(r.Body).Decode(&body)
				if body["url"] != "https://youtu.be/abc" {
					t.Errorf("unexpected url %v", body["url"])
				}
				if body["category"] != nil {
					t.Errorf("expected null category, got %v", body["category"])
				}
				writeJSON(w, http.StatusOK, map[string]any{"message": "Video processed successfully", "video_id": 4})
			}))
			defer server.Close()

			sub, err := NewAPIService(server.URL, nil).CreateVideo(context.Background(), session, " https://youtu.be/abc ", "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if sub.VideoID != 4 {
				t.Errorf("expected video id 4, got %d", sub.VideoID)
			}
		})

		t.Run("Rejects Bad URL", func(t *testing.T) {
			api := NewAPIService("http://example.com", nil)
			if _, err := api.CreateVideo(context.Background(), session, "", ""); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
			if _, err := api.CreateVideo(context.Background(), session, "not a url", ""); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})

	t.Run("Messages", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/messages/3" {
				t.Errorf("expected /messages/3, got %s", r.URL.Path)
			}
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": 1, "content": "hi", "user_id": 2, "video_id": 3},
				{"id": 2, "content": "hello", "user_id": nil, "video_id": 3},
			})
		}))
		defer server.Close()

		messages, err := NewAPIService(server.URL, nil).Messages(context.Background(), session, 3)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(messages))
		}
		if messages[0].FromAI() || !messages[1].FromAI() {
			t.Error("expected only the second message to be from the AI")
		}
	})

	t.Run("PostMessage", func(t *testing.T) {
		t.Run("Sends Body And Decodes Exchange", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/messages" {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				var body map[string]any
				json.NewDecoder(r.Body).Decode(&body)
				if body["content"] != "why?" || body["video_id"] != float64(3) || body["parent_id"] != float64(9) {
					t.Errorf("unexpected body %v", body)
				}
				writeJSON(w, http.StatusOK, map[string]any{
					"user_message": map[string]any{"id": 10, "content": "why?", "user_id": 1, "video_id": 3},
					"ai_response":  map[string]any{"id": 11, "content": "because", "user_id": nil, "video_id": 3},
				})
			}))
			defer server.Close()

			ex, err := NewAPIService(server.URL, nil).PostMessage(context.Background(), session, 3, "why?", models.IntPtr(9))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ex.AIResponse.Content != "because" || !ex.AIResponse.FromAI() {
				t.Errorf("unexpected AI response %+v", ex.AIResponse)
			}
		})

		t.Run("Omits Parent When Nil", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				json.NewDecoder(r.Body).Decode(&body)
				if _, ok := body["parent_id"]; ok {
					t.Error("expected parent_id to be omitted")
				}
				writeJSON(w, http.StatusOK, map[string]any{})
			}))
			defer server.Close()

			if _, err := NewAPIService(server.URL, nil).PostMessage(context.Background(), session, 3, "q", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Rejects Empty Content", func(t *testing.T) {
			api := NewAPIService("http://example.com", nil)
			if _, err := api.PostMessage(context.Background(), session, 3, "  ", nil); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})

	t.Run("Malformed Response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("<html>"))
		}))
		defer server.Close()

		if _, err := NewAPIService(server.URL, nil).Videos(context.Background(), session, ""); !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
		}))
		defer server.Close()

		if _, err := NewAPIService(server.URL, nil).Videos(context.Background(), session, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
