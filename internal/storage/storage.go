// Package storage provides the key-value persistence used for column
// layouts and edit records.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Keys used by a grid instance. Both are namespaced by grid ID.
const (
	LayoutKeySuffix = "layout"
	EditsKeySuffix  = "edits"
)

// LayoutKey returns the storage key for a grid's column layout
func LayoutKey(gridID string) string { return gridID + "." + LayoutKeySuffix }

// EditsKey returns the storage key for a grid's edit records
func EditsKey(gridID string) string { return gridID + "." + EditsKeySuffix }

// Store reads and writes JSON blobs by key
type Store interface {
	// Read returns the blob stored under key; ok is false when absent.
	Read(key string) (data []byte, ok bool, err error)
	// Write replaces the blob stored under key.
	Write(key string, data []byte) error
}

// Memory is an in-process Store
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Read(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *Memory) Write(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

// File stores each key as <dir>/<key>.json
type File struct {
	dir string
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// NewFile creates a file-backed store rooted at dir
func NewFile(dir string) *File {
	return &File{dir: dir}
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

func (f *File) Read(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, true, nil
}

func (f *File) Write(key string, data []byte) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	// Write then rename so a crash never leaves a truncated blob behind.
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}
