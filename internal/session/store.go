package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Profile is the signed-in user as returned by the auth endpoints.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

// State is the persisted credential and profile of a session.
type State struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	User         Profile `json:"user"`
}

// Store persists session state between process runs. Load returns nil
// without error when nothing is stored.
type Store interface {
	Load() (*State, error)
	Save(state *State) error
	Clear() error
}

// FileStore keeps the state as a JSON file readable only by its owner.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// DefaultPath is ~/.agriconnect/session.json, falling back to the working
// directory when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agriconnect-session.json"
	}
	return filepath.Join(home, ".agriconnect", "session.json")
}

func (s *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	if state.Token == "" {
		return nil, nil
	}
	return &state, nil
}

func (s *FileStore) Save(state *State) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp, s.Path)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemoryStore keeps state for the life of the process only.
type MemoryStore struct {
	state *State
}

func (s *MemoryStore) Load() (*State, error) { return s.state, nil }

func (s *MemoryStore) Save(state *State) error {
	copied := *state
	s.state = &copied
	return nil
}

func (s *MemoryStore) Clear() error {
	s.state = nil
	return nil
}
