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
	tu "github.com/desertthunder/vidtalk/internal/testing"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestLogin(t *testing.T) {
	t.Run("Posts Password Form And Returns Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/token" {
				t.Errorf("expected /token, got %s", r.URL.Path)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse form: %v", err)
			}
			if r.PostForm.Get("grant_type") != "password" {
				t.Errorf("expected password grant, got %q", r.PostForm.Get("grant_type"))
			}
			if r.PostForm.Get("username") != "a@b.c" || r.PostForm.Get("password") != "pw" {
				t.Errorf("unexpected credentials %v", r.PostForm)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("expected no Authorization header on login")
			}
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "T1", "token_type": "bearer"})
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		token, err := srv.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "pw"})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "T1" {
			t.Errorf("expected token T1, got %s", token.AccessToken)
		}
		if token.TokenType != "bearer" {
			t.Errorf("expected token type bearer, got %s", token.TokenType)
		}
	})

	t.Run("Rejected Credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		_, err := srv.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "bad"})

		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Detail != "Incorrect email or password" {
			t.Errorf("expected APIError with detail, got %v", err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		_, err := srv.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "pw"})

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500 APIError, got %v", err)
		}
	})

	t.Run("Missing Access Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"token_type": "bearer"})
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		if _, err := srv.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "pw"}); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("JSON Token Without JSON Content Type", func(t *testing.T) {
		tests := []struct {
			name        string
			contentType string
		}{
			{name: "Text Plain", contentType: "text/plain; charset=utf-8"},
			{name: "No Header", contentType: ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header()["Content-Type"] = nil
					if tt.contentType != "" {
						w.Header().Set("Content-Type", tt.contentType)
					}
					w.WriteHeader(http.StatusOK)
					w.Write([]byte(`{"access_token":"T1","token_type":"bearer"}`))
				}))
				defer server.Close()

				srv := NewAPIService(server.URL, nil)
				token, err := srv.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "pw"})
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if token.AccessToken != "T1" {
					t.Errorf("expected token T1, got %q", token.AccessToken)
				}
			})
		}
	})

	t.Run("Plain Body Without Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte(`{"token_type":"bearer"}`))
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		if _, err := srv.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "pw"}); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Network Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

		srv := NewAPIService("http://example.com", client)
		if _, err := srv.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "pw"}); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Empty Credentials Skip Network", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("unreachable"))
		srv := NewAPIService("http://example.com", &http.Client{Transport: rt})

		tests := []models.Credentials{
			{Email: "", Password: "pw"},
			{Email: "   ", Password: "pw"},
			{Email: "a@b.c", Password: ""},
		}
		for _, creds := range tests {
			if _, err := srv.Login(context.Background(), creds); !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials for %+v, got %v", creds, err)
			}
		}
		if rt.Requests != 0 {
			t.Errorf("expected no requests, got %d", rt.Requests)
		}
	})
}

func TestRegister(t *testing.T) {
	t.Run("Posts JSON And Returns Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/register" {
				t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			}
			var reg models.Registration
			if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if reg.Email != "a@b.c" || reg.Username != "ann" || reg.Password != "pw" {
				t.Errorf("unexpected registration %+v", reg)
			}
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "T2", "token_type": "bearer"})
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		token, err := srv.Register(context.Background(), models.Registration{Email: "a@b.c", Username: "ann", Password: "pw"})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "T2" {
			t.Errorf("expected token T2, got %s", token.AccessToken)
		}
	})

	t.Run("Duplicate Account", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		_, err := srv.Register(context.Background(), models.Registration{Email: "a@b.c", Username: "ann", Password: "pw"})

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 APIError, got %v", err)
		}
	})

	t.Run("Missing Access Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{})
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		_, err := srv.Register(context.Background(), models.Registration{Email: "a@b.c", Username: "ann", Password: "pw"})
		if !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("Missing Fields", func(t *testing.T) {
		srv := NewAPIService("http://example.com", nil)
		_, err := srv.Register(context.Background(), models.Registration{Email: "a@b.c", Password: "pw"})
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
