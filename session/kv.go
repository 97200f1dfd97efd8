package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KV is the key-value store session records are kept in. Put must be atomic:
// readers see either the previous value or the complete new one.
type KV interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

const recordExt = ".json"

// FileKV stores one file per key under a root directory
type FileKV struct {
	root string
}

// NewFileKV creates the root directory if needed
func NewFileKV(root string) (*FileKV, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("cannot create store directory %s: %w", root, err)
	}
	return &FileKV{root: root}, nil
}

func (f *FileKV) path(key string) (string, error) {
	if err := ValidateID(key); err != nil {
		return "", err
	}
	return filepath.Join(f.root, key+recordExt), nil
}

// Put writes to a temp file in the same directory and renames it over the target
func (f *FileKV) Put(ctx context.Context, key string, value []byte) error {
	target, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, "."+key+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cannot write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cannot sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cannot close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cannot commit %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	return data, err
}

func (f *FileKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(f.root, prefix+"*"+recordExt))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, strings.TrimSuffix(filepath.Base(m), recordExt))
	}
	return keys, nil
}
