// Package sidecar reads and writes the per-file JSON metadata records that
// legacy uploads left next to their mirrored files. New ingests never create
// sidecars; the service backfills sidecar entries into the structured store
// on first read.
package sidecar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"planvault/internal/model"
)

// Suffix is appended to a stored filename to form its sidecar path.
const Suffix = ".meta.json"

// Index is a handle to the sidecar records inside the uploads directory.
type Index struct {
	root string
}

// New returns a sidecar index rooted at the uploads directory.
func New(root string) *Index {
	return &Index{root: root}
}

func (ix *Index) path(storedName string) string {
	return filepath.Join(ix.root, filepath.Base(storedName)+Suffix)
}

// Read returns the sidecar record for a stored filename, or nil when no
// sidecar exists.
func (ix *Index) Read(storedName string) (*model.Document, error) {
	data, err := os.ReadFile(ix.path(storedName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sidecar: %w", err)
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode sidecar %s: %w", storedName, err)
	}
	return &doc, nil
}

// Write persists a sidecar record alongside the mirrored file.
func (ix *Index) Write(doc *model.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := os.WriteFile(ix.path(doc.StoredName), data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// Rename moves a sidecar to follow its renamed file. Absent sidecars are
// ignored.
func (ix *Index) Rename(oldName, newName string) error {
	err := os.Rename(ix.path(oldName), ix.path(newName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("move sidecar: %w", err)
	}
	return nil
}

// Remove deletes a sidecar record. Missing files are not an error.
func (ix *Index) Remove(storedName string) error {
	err := os.Remove(ix.path(storedName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove sidecar: %w", err)
	}
	return nil
}

// List returns every sidecar record in the uploads directory. Records that
// fail to decode are skipped so one corrupt legacy file cannot hide the rest.
func (ix *Index) List() ([]model.Document, error) {
	entries, err := os.ReadDir(ix.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan uploads dir: %w", err)
	}

	docs := make([]model.Document, 0)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Suffix) {
			continue
		}
		doc, err := ix.Read(strings.TrimSuffix(e.Name(), Suffix))
		if err != nil || doc == nil {
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}
