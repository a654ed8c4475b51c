package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/shadercreator/backend/internal/models"
)

// FileSystem is the filesystem view used by naming and validation.
type FileSystem interface {
	// IsFile reports whether path names an existing regular file.
	IsFile(path string) bool
	// ListFiles returns the names of the regular files directly inside dir.
	ListFiles(dir string) ([]string, error)
}

// imagePattern matches the picker's image extensions, e.g. "*.{jpg,jpeg,...}".
var imagePattern = "*.{" + strings.Join(models.ImageExtensions, ",") + "}"

// ImagePattern returns the glob used to recognise texture images.
func ImagePattern() string {
	return imagePattern
}

// IsImage reports whether name has one of the image extensions (any case).
func IsImage(name string) bool {
	ok, err := doublestar.Match(imagePattern, strings.ToLower(filepath.Base(name)))
	return err == nil && ok
}

// ListImages returns the sorted image file names inside dir.
func ListImages(fsys FileSystem, dir string) ([]string, error) {
	names, err := fsys.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	images := make([]string, 0, len(names))
	for _, name := range names {
		if IsImage(name) {
			images = append(images, name)
		}
	}
	sort.Strings(images)
	return images, nil
}

// LocalStore implements FileSystem on the local disk. Relative paths are
// resolved against root when root is set.
type LocalStore struct {
	mu    sync.RWMutex
	root  string
	stats int
}

// NewLocalStore creates a LocalStore. An empty root leaves relative paths
// relative to the working directory.
func NewLocalStore(root string) (*LocalStore, error) {
	if root != "" {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("texture root: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("texture root is not a directory: %s", root)
		}
	}
	return &LocalStore{root: root}, nil
}

// Resolve returns the on-disk path for p.
func (s *LocalStore) Resolve(p string) string {
	p = filepath.FromSlash(p)
	if s.root == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, p)
}

// IsFile stats path once.
func (s *LocalStore) IsFile(path string) bool {
	s.mu.Lock()
	s.stats++
	s.mu.Unlock()

	info, err := os.Stat(s.Resolve(path))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// ListFiles lists the regular files in dir.
func (s *LocalStore) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(s.Resolve(dir))
	if err != nil {
		return nil, fmt.Errorf("listing directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// StatCount returns how many IsFile calls have been made.
func (s *LocalStore) StatCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
