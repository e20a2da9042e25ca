package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store backed by a single JSON file. Every write rewrites
// the full file; with one wizard session per store that stays cheap.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFile loads (or initializes) a file-backed store at path.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		// A corrupt session file is recoverable: start fresh.
		f.values = make(map[string]string)
	}
	return f, nil
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flushLocked()
}

func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return f.flushLocked()
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = make(map[string]string)
	return f.flushLocked()
}

func (f *File) flushLocked() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", f.path, err)
	}
	return nil
}
