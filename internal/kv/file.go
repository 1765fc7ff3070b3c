package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store persisted as one JSON object on disk, the local
// equivalent of browser storage. Every write rewrites the whole file
// through a temp file and rename, so a batch lands completely or not at all.
type File struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*File)(nil)

// NewFile returns a store backed by path. The file is created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) load() (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	data := map[string]json.RawMessage{}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("kv: corrupt store file %s: %w", f.path, err)
	}
	return data, nil
}

func (f *File) save(data map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".storage-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Get reads key from the file.
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := data[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set writes key.
func (f *File) Set(ctx context.Context, key string, value []byte) error {
	return f.Apply(ctx, Put(key, value))
}

// Remove deletes key.
func (f *File) Remove(ctx context.Context, key string) error {
	return f.Apply(ctx, Delete(key))
}

// Apply loads the file once, applies ops and rewrites it once.
func (f *File) Apply(_ context.Context, ops ...Op) error {
	if err := Validate(ops...); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.load()
	if err != nil {
		return err
	}
	for _, op := range ops {
		if op.Delete {
			delete(data, op.Key)
			continue
		}
		data[op.Key] = append(json.RawMessage(nil), op.Value...)
	}
	return f.save(data)
}
