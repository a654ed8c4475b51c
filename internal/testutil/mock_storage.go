// mock_storage.go - In-memory filesystem for testing
package testutil

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/shadercreator/backend/internal/storage"
)

var _ storage.FileSystem = (*MockFS)(nil)

// MockFS implements storage.FileSystem over a set of slash-separated paths.
type MockFS struct {
	files map[string]struct{}
	stats map[string]int
	mu    sync.RWMutex
}

// NewMockFS creates a mock filesystem containing files.
func NewMockFS(files ...string) *MockFS {
	m := &MockFS{
		files: make(map[string]struct{}),
		stats: make(map[string]int),
	}
	for _, f := range files {
		m.AddFile(f)
	}
	return m
}

// AddFile registers a file.
func (m *MockFS) AddFile(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean(p)] = struct{}{}
}

// RemoveFile unregisters a file.
func (m *MockFS) RemoveFile(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, clean(p))
}

func (m *MockFS) IsFile(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	m.stats[p]++
	_, ok := m.files[p]
	return ok
}

func (m *MockFS) ListFiles(dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir = clean(dir)
	var names []string
	found := false
	for f := range m.files {
		if path.Dir(f) == dir {
			names = append(names, path.Base(f))
			found = true
		} else if strings.HasPrefix(f, dir+"/") {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("listing directory: %s: no such directory", dir)
	}
	sort.Strings(names)
	return names, nil
}

// StatCount returns how many times p was checked.
func (m *MockFS) StatCount(p string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats[clean(p)]
}

// TotalStats returns the number of IsFile calls.
func (m *MockFS) TotalStats() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.stats {
		total += n
	}
	return total
}

func clean(p string) string {
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}
