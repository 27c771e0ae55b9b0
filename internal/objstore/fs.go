package objstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fsStore writes objects as files under a root dir. The URI form is
// file://<abs path>.
type fsStore struct {
	root string
}

// NewFS returns a filesystem-backed store rooted at dir.
func NewFS(dir string) (Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("object store dir required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &fsStore{root: abs}, nil
}

func (s *fsStore) path(name string) (string, error) {
	clean := filepath.Clean("/" + name) // forces the name under root
	p := filepath.Join(s.root, clean)
	if !strings.HasPrefix(p, s.root) {
		return "", fmt.Errorf("object name %q escapes store root", name)
	}
	return p, nil
}

func (s *fsStore) Put(_ context.Context, name string, data []byte) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return "file://" + p, nil
}

func (s *fsStore) Get(_ context.Context, name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *fsStore) Close() error { return nil }
