// Package file persists the config document as a JSON file on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gastos/internal/core"
	"gastos/internal/store"
)

// Store reads and writes a single JSON document. Writes go to a temporary
// file in the same directory which is then renamed over the target.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the document.
func (s *Store) Path() string { return s.path }

func (s *Store) Load(_ context.Context) (core.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Config{}, store.ErrConfigNotFound
	}
	if err != nil {
		return core.Config{}, fmt.Errorf("read config %s: %w", s.path, err)
	}
	cfg, err := core.DecodeConfig(data)
	if err != nil {
		return core.Config{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return cfg, nil
}

func (s *Store) Save(_ context.Context, cfg core.Config) error {
	data, err := core.EncodeConfig(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".configuracion-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace config %s: %w", s.path, err)
	}
	return nil
}

var _ store.ConfigRepository = (*Store)(nil)
