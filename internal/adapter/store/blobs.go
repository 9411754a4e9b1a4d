package store

import (
	"fmt"
	"os"
	"path/filepath"

	"docqa/internal/domain"
)

// DocDir stores each document's raw text as a file under a single
// directory. Names are validated against the directory boundary before
// any filesystem access.
type DocDir struct {
	root string
}

// NewDocDir creates a blob store rooted at dir.
func NewDocDir(dir string) *DocDir {
	return &DocDir{root: dir}
}

// Path returns the storage location for name without touching disk.
func (d *DocDir) Path(name string) string {
	return filepath.Join(d.root, name)
}

// Save writes the document's raw content, creating the directory on
// first use.
func (d *DocDir) Save(name, content string) error {
	if err := domain.ValidateDocumentName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create docs directory: %w", err)
	}
	if err := os.WriteFile(d.Path(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", name, err)
	}
	return nil
}

// Read returns the document's raw content.
func (d *DocDir) Read(name string) (string, error) {
	if err := domain.ValidateDocumentName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(d.Path(name))
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", name, err)
	}
	return string(data), nil
}

// Delete removes the document's content. Absence is not an error.
func (d *DocDir) Delete(name string) error {
	if err := domain.ValidateDocumentName(name); err != nil {
		return err
	}
	if err := os.Remove(d.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document %s: %w", name, err)
	}
	return nil
}
