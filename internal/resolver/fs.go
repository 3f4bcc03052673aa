// Package resolver provides document storage backends for the context
// assembler. The filesystem resolver maps document references to files
// under a fixed root and refuses to follow references outside it.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/docguard/internal/assemble"
)

const maxDocumentBytes = 10 * 1024 * 1024

// FS resolves document references against a root directory. References
// are slash-separated relative paths; absolute paths and traversal
// outside the root are rejected.
type FS struct {
	root string
}

// NewFS creates a filesystem resolver rooted at dir. The directory
// must exist.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string { return f.root }

// Resolve maps a document reference to a location under the root.
// A reference that escapes the root resolves as nonexistent rather
// than erroring: the assembler treats it as a soft rejection.
func (f *FS) Resolve(_ context.Context, path string) (assemble.Resolution, error) {
	loc, ok := f.jail(path)
	if !ok {
		return assemble.Resolution{}, nil
	}
	info, err := os.Stat(loc)
	if err != nil || !info.Mode().IsRegular() {
		return assemble.Resolution{}, nil
	}
	// Follow symlinks only if the target stays inside the root.
	real, err := filepath.EvalSymlinks(loc)
	if err != nil {
		return assemble.Resolution{}, nil
	}
	if !strings.HasPrefix(real, f.root+string(filepath.Separator)) {
		return assemble.Resolution{}, nil
	}
	return assemble.Resolution{Exists: true, Location: real}, nil
}

// Read returns the file contents at a previously resolved location.
func (f *FS) Read(_ context.Context, location string) (string, error) {
	info, err := os.Stat(location)
	if err != nil {
		return "", fmt.Errorf("stat document: %w", err)
	}
	if info.Size() > maxDocumentBytes {
		return "", fmt.Errorf("document too large: %d bytes", info.Size())
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

func (f *FS) jail(path string) (string, bool) {
	if path == "" || filepath.IsAbs(path) {
		return "", false
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(f.root, clean), true
}
