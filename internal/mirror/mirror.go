// Package mirror manages the local uploads directory that holds best-effort
// working copies of stored documents. The root is injected once per process;
// nothing here depends on the working directory.
package mirror

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Mirror is a handle to the local uploads directory.
type Mirror struct {
	root string
}

// New creates the uploads directory if absent and returns a handle to it.
func New(root string) (*Mirror, error) {
	if root == "" {
		return nil, errors.New("mirror root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Mirror{root: root}, nil
}

// Root returns the uploads directory path.
func (m *Mirror) Root() string { return m.root }

// Path returns the absolute path a stored name maps to. The name is reduced
// to its base component so callers cannot escape the root.
func (m *Mirror) Path(name string) string {
	return filepath.Join(m.root, filepath.Base(name))
}

// Exists reports whether a file with the stored name is present.
func (m *Mirror) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// Write stores data under the given name, replacing any previous content of
// the same name, and returns the resulting path.
func (m *Mirror) Write(name string, data []byte) (string, error) {
	p := m.Path(name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write mirror file: %w", err)
	}
	return p, nil
}

// Read returns the content of a mirrored file.
func (m *Mirror) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(m.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read mirror file: %w", err)
	}
	return data, nil
}

// Remove deletes a mirrored file. Missing files are not an error.
func (m *Mirror) Remove(name string) error {
	err := os.Remove(m.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove mirror file: %w", err)
	}
	return nil
}

// Rename moves a mirrored file to a new stored name. An existing file at the
// target is never overwritten; a timestamp suffix is appended instead. The
// final name and path are returned.
func (m *Mirror) Rename(oldName, newName string) (string, string, error) {
	final := m.Disambiguate(newName)
	if err := os.Rename(m.Path(oldName), m.Path(final)); err != nil {
		return "", "", fmt.Errorf("rename mirror file: %w", err)
	}
	return final, m.Path(final), nil
}

// Disambiguate returns name unchanged when it is free on disk, or with a
// timestamp suffix inserted before the extension when it collides.
func (m *Mirror) Disambiguate(name string) string {
	name = filepath.Base(name)
	if !m.Exists(name) {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for {
		candidate := fmt.Sprintf("%s-%d%s", base, time.Now().UnixNano(), ext)
		if !m.Exists(candidate) {
			return candidate
		}
	}
}
