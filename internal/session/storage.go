package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
)

// FileStorage keeps credentials in a JSON file readable only by the owner.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() (Credentials, error) {
	var c Credentials
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, errors.Wrap(err, "read session")
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Credentials{}, errors.Wrap(err, "decode session")
	}
	return c, nil
}

func (f *FileStorage) Save(c Credentials) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Wrap(err, "create session dir")
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "write session")
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrap(err, "replace session")
	}
	return nil
}

func (f *FileStorage) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove session")
	}
	return nil
}

// MemoryStorage keeps credentials for the life of the process.
type MemoryStorage struct {
	mu    sync.Mutex
	creds *Credentials
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (m *MemoryStorage) Load() (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return Credentials{}, nil
	}
	return *m.creds, nil
}

func (m *MemoryStorage) Save(c Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = &c
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}
