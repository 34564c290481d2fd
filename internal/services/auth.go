package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
	"golang.org/x/oauth2"
)

// Login exchanges credentials for an access token at /token.
//
// The backend parses an OAuth2 password form, so the email travels as the username.
func (a *APIService) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrInvalidCredentials)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
	}

	rec := &bodyRecorder{base: a.httpClient.Transport}
	client := *a.httpClient
	client.Transport = rec

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &client)
	token, err := a.oauth.PasswordCredentialsToken(ctx, creds.Email, creds.Password)
	if err != nil {
		// oauth2 decodes JSON only under a JSON Content-Type.
		if resp := rec.tokenResponse(); resp != nil {
			return resp, nil
		}

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			apiErr := newAPIError(retrieveErr.Response.StatusCode, retrieveErr.Body)
			if apiErr.StatusCode == http.StatusUnauthorized {
				return nil, fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, apiErr)
			}
			return nil, apiErr
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return &models.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	}, nil
}

// Register creates an account at /register and returns its first access token.
func (a *APIService) Register(ctx context.Context, reg models.Registration) (*models.TokenResponse, error) {
	if strings.TrimSpace(reg.Email) == "" || strings.TrimSpace(reg.Username) == "" || reg.Password == "" {
		return nil, fmt.Errorf("%w: email, username and password are required", shared.ErrInvalidCredentials)
	}

	var token models.TokenResponse
	if err := a.do(ctx, http.MethodPost, "/register", reg, models.Session{}, &token); err != nil {
		return nil, err
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: response missing access_token", shared.ErrMalformedResponse)
	}

	return &token, nil
}

// bodyRecorder keeps a copy of the last response body passed through it.
type bodyRecorder struct {
	base   http.RoundTripper
	status int
	body   []byte
}

func (b *bodyRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	base := b.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	b.status = resp.StatusCode
	b.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// tokenResponse decodes a 2xx JSON body holding an access token, or returns nil.
func (b *bodyRecorder) tokenResponse() *models.TokenResponse {
	if b.status < 200 || b.status >= 300 {
		return nil
	}

	var token models.TokenResponse
	if err := json.Unmarshal(b.body, &token); err != nil || token.AccessToken == "" {
		return nil
	}
	return &token
}
