package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/services"
	"github.com/desertthunder/vidtalk/internal/session"
	"github.com/desertthunder/vidtalk/internal/shared"
)

func newStub(t *testing.T) (*StubBackend, *httptest.Server) {
	t.Helper()
	stub := NewStubBackend(shared.NewLogger(io.Discard))
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, srv
}

func newManager(api *services.APIService, store session.TokenStore) *session.Manager {
	return session.NewManager(api, store, shared.NewLogger(io.Discard))
}

func TestStubBackendSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Login Issues Usable Token", func(t *testing.T) {
		stub, srv := newStub(t)
		stub.AddUser("a@b.com", "ann", "pw")

		api := services.NewAPIService(srv.URL, nil)
		m := newManager(api, nil)

		if !m.Login(ctx, "a@b.com", "pw") {
			t.Fatalf("expected login to succeed, err=%v", m.Err())
		}
		if !m.IsAuthenticated() {
			t.Error("expected authenticated session")
		}

		claims, ok := m.Claims()
		if !ok {
			t.Fatal("expected token to decode as JWT")
		}
		if claims.Subject != "1" {
			t.Errorf("expected subject 1, got %q", claims.Subject)
		}
		if claims.Expired(time.Now()) {
			t.Error("expected fresh token")
		}

		client := services.NewClient(api, m)
		if _, err := client.Videos(ctx, ""); err != nil {
			t.Errorf("expected authorized request to succeed, got %v", err)
		}
	})

	t.Run("Wrong Password Keeps Prior Session", func(t *testing.T) {
		stub, srv := newStub(t)
		stub.AddUser("a@b.com", "ann", "pw")

		m := newManager(services.NewAPIService(srv.URL, nil), session.NewMemoryStore("previous"))

		if m.Login(ctx, "a@b.com", "nope") {
			t.Fatal("expected login to fail")
		}
		if m.Token() != "previous" {
			t.Errorf("expected prior token, got %q", m.Token())
		}
		if !errors.Is(m.Err(), shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", m.Err())
		}
	})

	t.Run("Register Then Duplicate", func(t *testing.T) {
		_, srv := newStub(t)
		m := newManager(services.NewAPIService(srv.URL, nil), nil)

		if !m.Register(ctx, "new@b.com", "newbie", "pw") {
			t.Fatalf("expected registration to succeed, err=%v", m.Err())
		}
		first := m.Token()

		if m.Register(ctx, "new@b.com", "again", "pw") {
			t.Fatal("expected duplicate registration to fail")
		}
		if m.Token() != first {
			t.Error("expected failed registration to keep the session")
		}

		m.Logout()
		if !m.Login(ctx, "new@b.com", "pw") {
			t.Errorf("expected login with registered account, err=%v", m.Err())
		}
	})

	t.Run("Restored Session Makes No Request", func(t *testing.T) {
		stub, srv := newStub(t)
		id := stub.AddUser("a@b.com", "ann", "pw")
		token, err := stub.IssueToken(id)
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		m := newManager(services.NewAPIService(srv.URL, nil), session.NewMemoryStore(token))

		if !m.IsAuthenticated() {
			t.Error("expected restored session")
		}
		if stub.Requests() != 0 {
			t.Errorf("expected no requests, got %d", stub.Requests())
		}
	})

	t.Run("Forged And Expired Tokens Rejected", func(t *testing.T) {
		stub, srv := newStub(t)
		id := stub.AddUser("a@b.com", "ann", "pw")
		api := services.NewAPIService(srv.URL, nil)

		other := NewStubBackend(shared.NewLogger(io.Discard))
		other.AddUser("a@b.com", "ann", "pw")
		forged, _ := other.IssueToken(id)

		stub.Now = func() time.Time { return time.Now().Add(-time.Hour) }
		expired, _ := stub.IssueToken(id)
		stub.Now = time.Now

		for name, token := range map[string]string{"forged": forged, "expired": expired, "opaque": "abc"} {
			t.Run(name, func(t *testing.T) {
				client := services.NewClient(api, services.StaticSession{Token: token})
				if _, err := client.Videos(ctx, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
					t.Errorf("expected 401 to map to ErrNotAuthenticated, got %v", err)
				}
			})
		}
	})
}

func TestStubBackendVideos(t *testing.T) {
	ctx := context.Background()
	stub, srv := newStub(t)
	id := stub.AddUser("a@b.com", "ann", "pw")
	token, _ := stub.IssueToken(id)
	client := services.NewClient(services.NewAPIService(srv.URL, nil), services.StaticSession{Token: token})

	t.Run("Unauthenticated Request", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/videos")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Create List Show", func(t *testing.T) {
		sub, err := client.CreateVideo(ctx, "https://www.youtube.com/watch?v=abc123", "")
		if err != nil {
			t.Fatalf("failed to create video: %v", err)
		}
		if sub.Message != "Video processed successfully" {
			t.Errorf("unexpected message %q", sub.Message)
		}

		if _, err := client.CreateVideo(ctx, "https://youtu.be/xyz", "Tutorial"); err != nil {
			t.Fatalf("failed to create video: %v", err)
		}

		all, err := client.Videos(ctx, "")
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 videos, got %d", len(all))
		}
		if all[0].Transcription != nil {
			t.Error("expected list to omit transcriptions")
		}
		if all[0].Category != "Other" {
			t.Errorf("expected default category Other, got %q", all[0].Category)
		}

		tutorials, _ := client.Videos(ctx, "Tutorial")
		if len(tutorials) != 1 || tutorials[0].YouTubeID != "xyz" {
			t.Errorf("unexpected filtered videos %+v", tutorials)
		}

		video, err := client.Video(ctx, sub.VideoID)
		if err != nil {
			t.Fatalf("failed to get video: %v", err)
		}
		if video.TranscriptText() != "Transcript of abc123" {
			t.Errorf("unexpected transcript %q", video.TranscriptText())
		}
		if video.UserID == nil || *video.UserID != id {
			t.Errorf("expected owner %d, got %v", id, video.UserID)
		}
	})

	t.Run("Invalid URL", func(t *testing.T) {
		_, err := client.CreateVideo(ctx, "https://vimeo.com/1", "")
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 APIError, got %v", err)
		}
	})

	t.Run("Missing Video", func(t *testing.T) {
		if _, err := client.Video(ctx, 999); !errors.Is(err, shared.ErrVideoNotFound) {
			t.Errorf("expected ErrVideoNotFound, got %v", err)
		}
	})
}

func TestStubBackendMessages(t *testing.T) {
	ctx := context.Background()
	stub, srv := newStub(t)
	id := stub.AddUser("a@b.com", "ann", "pw")
	token, _ := stub.IssueToken(id)
	video := stub.AddVideo(models.Video{Title: "Go Tour", YouTubeID: "go"})
	stub.Reply = func(v models.Video, content string) string { return v.Title + ": " + content }

	client := services.NewClient(services.NewAPIService(srv.URL, nil), services.StaticSession{Token: token})

	ex, err := client.PostMessage(ctx, video.ID, "what is a goroutine?", nil)
	if err != nil {
		t.Fatalf("failed to post: %v", err)
	}
	if ex.UserMessage.FromAI() || !ex.AIResponse.FromAI() {
		t.Error("expected user message then AI response")
	}
	if ex.AIResponse.Content != "Go Tour: what is a goroutine?" {
		t.Errorf("unexpected reply %q", ex.AIResponse.Content)
	}
	if ex.AIResponse.ParentID == nil || *ex.AIResponse.ParentID != ex.UserMessage.ID {
		t.Error("expected AI response to reply to the user message")
	}

	if _, err := client.PostMessage(ctx, video.ID, "follow up", models.IntPtr(ex.AIResponse.ID)); err != nil {
		t.Fatalf("failed to post reply: %v", err)
	}

	messages, err := client.Messages(ctx, video.ID)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[2].ParentID == nil || *messages[2].ParentID != ex.AIResponse.ID {
		t.Errorf("expected reply parent %d, got %v", ex.AIResponse.ID, messages[2].ParentID)
	}

	if _, err := client.PostMessage(ctx, 999, "lost", nil); !errors.Is(err, shared.ErrVideoNotFound) {
		t.Errorf("expected ErrVideoNotFound, got %v", err)
	}

	empty, err := client.Messages(ctx, 999)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty discussion, got %v, %v", empty, err)
	}
}
