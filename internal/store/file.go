package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the save in a single JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// Load reads the save file. A missing file means no save.
func (f *FileStore) Load(context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Save writes to a temp file and renames it over the save.
func (f *FileStore) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".save-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) Clear(context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileStore) Close() error   { return nil }
func (f *FileStore) Driver() Driver { return DriverFile }
