// manager_test.go - Tests for the texture filesystem layer
package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func createTestStore(t *testing.T) (*LocalStore, string) {
	tempDir := t.TempDir()
	store, err := NewLocalStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store, tempDir
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewLocalStore(t *testing.T) {
	t.Run("accepts empty root", func(t *testing.T) {
		store, err := NewLocalStore("")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got := store.Resolve("a/b.exr"); got != filepath.FromSlash("a/b.exr") {
			t.Errorf("Expected relative path unchanged, got %s", got)
		}
	})

	t.Run("rejects missing root", func(t *testing.T) {
		if _, err := NewLocalStore(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("Expected error for missing root")
		}
	})

	t.Run("rejects file root", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		writeFile(t, file)
		if _, err := NewLocalStore(file); err == nil {
			t.Error("Expected error for file root")
		}
	})
}

func TestLocalStore_IsFile(t *testing.T) {
	store, root := createTestStore(t)
	writeFile(t, filepath.Join(root, "tex", "hero_Diffuse_v01.exr"))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"relative to root", "tex/hero_Diffuse_v01.exr", true},
		{"absolute", filepath.Join(root, "tex", "hero_Diffuse_v01.exr"), true},
		{"missing", "tex/hero_Bump_v01.exr", false},
		{"directory", "tex", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := store.IsFile(tt.path); got != tt.want {
				t.Errorf("IsFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if store.StatCount() != len(tests) {
		t.Errorf("Expected %d stats, got %d", len(tests), store.StatCount())
	}
}

func TestLocalStore_ListFiles(t *testing.T) {
	store, root := createTestStore(t)
	writeFile(t, filepath.Join(root, "b.png"))
	writeFile(t, filepath.Join(root, "a.exr"))
	writeFile(t, filepath.Join(root, "sub", "c.exr"))

	names, err := store.ListFiles(".")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.exr" || names[1] != "b.png" {
		t.Errorf("Expected [a.exr b.png], got %v", names)
	}

	if _, err := store.ListFiles("missing"); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestIsImage(t *testing.T) {
	tests := map[string]bool{
		"hero_Diffuse_v01.exr": true,
		"hero.1001.EXR":        true,
		"a.jpeg":               true,
		"a.tif":                true,
		"a.tga":                true,
		"a.png":                true,
		"a.tiff":               false,
		"notes.txt":            false,
		"exr":                  false,
	}
	for name, want := range tests {
		if got := IsImage(name); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestListImages(t *testing.T) {
	store, root := createTestStore(t)
	writeFile(t, filepath.Join(root, "z_Bump_v01.tif"))
	writeFile(t, filepath.Join(root, "readme.md"))
	writeFile(t, filepath.Join(root, "a_Diffuse_v01.exr"))

	images, err := ListImages(store, ".")
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 2 || images[0] != "a_Diffuse_v01.exr" || images[1] != "z_Bump_v01.tif" {
		t.Errorf("Unexpected images: %v", images)
	}
}
