// API service for building and sending requests to the video discussion backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:8000"

// APIService builds requests against the backend and decodes its responses.
//
// It holds no session state: every method that needs credentials takes a [models.Session].
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	oauth      *oauth2.Config
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// SetRateLimit paces outgoing requests to rps per second. Zero or less removes the limit.
func (a *APIService) SetRateLimit(rps float64) {
	if rps <= 0 {
		a.limiter = nil
		return
	}
	a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// BaseURL returns the backend root without a trailing slash.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: status %d", shared.ErrAPIRequest, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d: %s", shared.ErrAPIRequest, e.StatusCode, e.Detail)
}

// Unwrap makes every APIError match [shared.ErrAPIRequest].
func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// Is maps well-known statuses onto the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized
	case shared.ErrVideoNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// NewRequest builds a request for path relative to the base URL.
//
// body is JSON-encoded unless it is nil or already a []byte. When s holds a token the
// request carries it as a bearer credential; otherwise no Authorization header is set.
func (a *APIService) NewRequest(ctx context.Context, method, path string, body any, s models.Session) (*http.Request, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", shared.GenerateID())

	if s.IsAuthenticated() {
		(&oauth2.Token{AccessToken: s.Token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	return req, nil
}

// send waits on the limiter, performs req and reads the full body.
func (a *APIService) send(req *http.Request) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, s models.Session) (*APIResponse, error) {
	req, err := a.NewRequest(ctx, http.MethodGet, path, nil, s)
	if err != nil {
		return nil, err
	}
	return a.send(req)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte, s models.Session) (*APIResponse, error) {
	req, err := a.NewRequest(ctx, http.MethodPost, path, data, s)
	if err != nil {
		return nil, err
	}
	return a.send(req)
}

// do sends a JSON request and decodes a 2xx body into result (if non-nil).
func (a *APIService) do(ctx context.Context, method, path string, body any, s models.Session, result any) error {
	req, err := a.NewRequest(ctx, method, path, body, s)
	if err != nil {
		return err
	}

	resp, err := a.send(req)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return newAPIError(resp.StatusCode, resp.Body)
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// newAPIError extracts FastAPI's {"detail": ...} when present.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var errResp struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
			apiErr.Detail = detail
		} else {
			apiErr.Detail = string(errResp.Detail)
		}
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(body))
	return apiErr
}
