package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileSlot struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"savedAt"`
}

// FileStore 本地文件槽位，0600 权限，写入走临时文件 + rename
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credential: read %s: %w", f.path, err)
	}
	var s fileSlot
	if err := json.Unmarshal(b, &s); err != nil {
		return "", fmt.Errorf("credential: decode %s: %w", f.path, err)
	}
	return s.Token, nil
}

func (f *FileStore) Save(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("credential: mkdir: %w", err)
	}
	b, err := json.Marshal(fileSlot{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".cred-*")
	if err != nil {
		return fmt.Errorf("credential: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("credential: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credential: remove %s: %w", f.path, err)
	}
	return nil
}
