// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/vidtalk/internal/models"
)

// MockVideoService is a test double for [services.VideoService].
//
// Calls are recorded so tests can assert on what was requested.
type MockVideoService struct {
	mu sync.Mutex

	VideoList  []models.Video
	VideoByID  map[int]*models.Video
	MessageMap map[int][]models.Message
	Submission *models.VideoSubmission
	Exchange   *models.MessageExchange

	// Err is returned by every call when set.
	Err error
	// MessageErr fails [MockVideoService.Messages] for the listed video ids only.
	MessageErr map[int]error

	Categories []string
	Posted     []string
}

func (m *MockVideoService) Videos(ctx context.Context, category string) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Categories = append(m.Categories, category)
	if m.Err != nil {
		return nil, m.Err
	}
	if category == "" {
		return m.VideoList, nil
	}
	var filtered []models.Video
	for _, v := range m.VideoList {
		if v.Category == category {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

func (m *MockVideoService) Video(ctx context.Context, id int) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if v, ok := m.VideoByID[id]; ok {
		return v, nil
	}
	for i := range m.VideoList {
		if m.VideoList[i].ID == id {
			v := m.VideoList[i]
			return &v, nil
		}
	}
	return nil, errors.New("video not found")
}

func (m *MockVideoService) CreateVideo(ctx context.Context, url, category string) (*models.VideoSubmission, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Submission != nil {
		return m.Submission, nil
	}
	return &models.VideoSubmission{Message: "Video processed successfully", VideoID: 1}, nil
}

func (m *MockVideoService) Messages(ctx context.Context, videoID int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if err, ok := m.MessageErr[videoID]; ok {
		return nil, err
	}
	return m.MessageMap[videoID], nil
}

func (m *MockVideoService) PostMessage(ctx context.Context, videoID int, content string, parentID *int) (*models.MessageExchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posted = append(m.Posted, content)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Exchange != nil {
		return m.Exchange, nil
	}
	return &models.MessageExchange{
		UserMessage: models.Message{ID: len(m.Posted), Content: content, VideoID: videoID, UserID: models.IntPtr(1)},
		AIResponse:  models.Message{ID: len(m.Posted) + 1000, Content: "AI reply", VideoID: videoID},
	}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing.
//
// Requests is incremented on every round trip.
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.Requests++
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
