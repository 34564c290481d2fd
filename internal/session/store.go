package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/gofrs/flock"
)

// TokenKey is the name the token is persisted under.
const TokenKey = "token"

// TokenStore persists a single token. Load returns "" when nothing is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileStore persists the token as JSON in a file readable only by its owner.
//
// Access is serialized across processes with a sibling ".lock" file.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore creates a store at path. "~" is expanded to the home directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: session path is empty", shared.ErrInvalidConfig)
	}

	path, err := shared.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path returns the file the token is written to.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (string, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	if err := s.lock.RLock(); err != nil {
		return "", fmt.Errorf("%w: failed to lock %s: %v", shared.ErrTokenStore, s.path, err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}

	var contents map[string]string
	if err := json.Unmarshal(data, &contents); err != nil {
		return "", fmt.Errorf("%w: %s is not valid JSON: %v", shared.ErrTokenStore, s.path, err)
	}
	return contents[TokenKey], nil
}

func (s *FileStore) Save(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", shared.ErrTokenStore, dir, err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("%w: failed to lock %s: %v", shared.ErrTokenStore, s.path, err)
	}
	defer s.lock.Unlock()

	data, err := json.Marshal(map[string]string{TokenKey: token})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}
	return nil
}

// Clear removes the token file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("%w: failed to lock %s: %v", shared.ErrTokenStore, s.path, err)
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", shared.ErrTokenStore, err)
	}
	return nil
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates a store preloaded with token, which may be empty.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
