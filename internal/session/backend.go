package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fraudcheck/cli/internal/models"
)

// State is everything the store persists. The three durable slots are the
// access token, the refresh token and the cached user profile.
type State struct {
	AccessToken  string       `yaml:"access_token"`
	RefreshToken string       `yaml:"refresh_token"`
	TokenType    string       `yaml:"token_type,omitempty"`
	ExpiresIn    int64        `yaml:"expires_in,omitempty"`
	IssuedAt     time.Time    `yaml:"issued_at,omitempty"`
	User         *models.User `yaml:"user,omitempty"`
}

// Backend persists session state between process runs
type Backend interface {
	Load() (State, error)
	Save(State) error
	Remove() error
}

// FileBackend keeps the session in a YAML file readable only by the owner
type FileBackend struct {
	Path string
}

// NewFileBackend creates a file backend at path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Load reads the session file. A missing file is an empty session.
func (b *FileBackend) Load() (State, error) {
	var state State

	data, err := os.ReadFile(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := yaml.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	return state, nil
}

// Save writes the session file through a temp file so a crash never leaves half a pair
func (b *FileBackend) Save(state State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("failed to protect session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return os.Rename(tmp.Name(), b.Path)
}

// Remove deletes the session file; removing a missing file is not an error
func (b *FileBackend) Remove() error {
	if err := os.Remove(b.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemoryBackend keeps the session in memory only
type MemoryBackend struct {
	mu    sync.Mutex
	state State
	saves int
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load() (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, nil
}

func (b *MemoryBackend) Save(state State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
	b.saves++
	return nil
}

func (b *MemoryBackend) Remove() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = State{}
	return nil
}

// Saves reports how many times Save was called
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}
