package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

type fileDocument struct {
	Settings map[string]string `yaml:"settings"`
}

// FileStore keeps settings in memory and writes them to a YAML file on Save.
type FileStore struct {
	*MemoryStore
	path string
}

// NewFileStore loads path when it exists. A missing file starts empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("settings: file path is required")
	}
	store := &FileStore{MemoryStore: NewMemoryStore(nil), path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	values, err := decodeFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	store.MemoryStore = NewMemoryStore(values)
	return store, nil
}

var _ refresh.Settings = (*FileStore)(nil)

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes every value to the file, replacing it atomically.
func (s *FileStore) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(fileDocument{Settings: s.Snapshot()})
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("settings: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("settings: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("settings: replace %s: %w", s.path, err)
	}
	return nil
}

func decodeFile(r io.Reader) (map[string]string, error) {
	var doc fileDocument
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return doc.Settings, nil
}
