// Package local stores synchronized workbooks in a directory. It stands in
// for Google Drive in development and tests.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ports "gastos/internal/drive"
)

// Remote maps folder ids to sub-directories of root and file ids to
// slash-separated paths relative to root.
type Remote struct {
	root string
	mu   sync.Mutex
}

var _ ports.Remote = (*Remote)(nil)

func New(root string) *Remote {
	return &Remote{root: root}
}

func (r *Remote) EnsureFolder(_ context.Context, name string) (string, error) {
	id := strings.TrimSpace(name)
	path, err := r.resolve(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	return id, nil
}

func (r *Remote) Stat(_ context.Context, id string) (ports.File, error) {
	path, err := r.resolve(id)
	if err != nil {
		return ports.File{}, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return ports.File{}, fmt.Errorf("%s: %w", id, ports.ErrFileNotFound)
	}
	if err != nil {
		return ports.File{}, fmt.Errorf("stat %s: %w", id, err)
	}
	return ports.File{ID: id, Name: info.Name(), ModifiedTime: info.ModTime()}, nil
}

func (r *Remote) Download(_ context.Context, id string) ([]byte, error) {
	path, err := r.resolve(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", id, ports.ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", id, err)
	}
	return data, nil
}

func (r *Remote) Upload(ctx context.Context, folderID, id, name string, data []byte) (ports.File, error) {
	if id == "" {
		id = filepath.ToSlash(filepath.Join(folderID, name))
	}
	path, err := r.resolve(id)
	if err != nil {
		return ports.File{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ports.File{}, fmt.Errorf("create folder for %s: %w", id, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ports.File{}, fmt.Errorf("write %s: %w", id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return ports.File{}, fmt.Errorf("replace %s: %w", id, err)
	}
	return r.statLocked(id, path)
}

func (r *Remote) statLocked(id, path string) (ports.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ports.File{}, fmt.Errorf("stat %s: %w", id, err)
	}
	return ports.File{ID: id, Name: info.Name(), ModifiedTime: info.ModTime()}, nil
}

// ShareLink returns a file URL; local files are never shared.
func (r *Remote) ShareLink(ctx context.Context, id string) (string, error) {
	if _, err := r.Stat(ctx, id); err != nil {
		return "", err
	}
	path, _ := r.resolve(id)
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", id, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// resolve maps id to a path under root, rejecting ids that escape it.
func (r *Remote) resolve(id string) (string, error) {
	if id == "" || filepath.IsAbs(id) {
		return "", fmt.Errorf("invalid id %q", id)
	}
	clean := filepath.Clean(filepath.FromSlash(id))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid id %q", id)
	}
	return filepath.Join(r.root, clean), nil
}
