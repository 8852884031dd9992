package host

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion is the current dashboard manifest format.
	ManifestVersion = manifestVersionV1
)

// DashboardManifest declares a dashboard, its worksheets, and the data
// sources each worksheet reads.
type DashboardManifest struct {
	Version    string              `yaml:"version"`
	Name       string              `yaml:"name"`
	Worksheets []ManifestWorksheet `yaml:"worksheets"`
	Source     string              `yaml:"-"`
}

// ManifestWorksheet is one worksheet entry.
type ManifestWorksheet struct {
	Name        string               `yaml:"name"`
	DataSources []ManifestDataSource `yaml:"data_sources"`
}

// ManifestDataSource is one data source reference. The same id may appear
// under several worksheets.
type ManifestDataSource struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name,omitempty"`
	// RefreshURL receives a POST on refresh. Blank means refresh is a no-op.
	RefreshURL string `yaml:"refresh_url,omitempty"`
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*DashboardManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("host: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("host: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*DashboardManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc DashboardManifest
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("host: manifest is empty")
		}
		return nil, fmt.Errorf("host: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks required fields. Duplicate ids inside one worksheet are
// rejected; duplicates across worksheets are expected.
func (doc *DashboardManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("host: unsupported manifest version %q", doc.Version)
	}
	if doc.Name == "" {
		return errors.New("host: manifest is missing name")
	}
	for i, ws := range doc.Worksheets {
		if ws.Name == "" {
			return fmt.Errorf("host: worksheet at index %d is missing name", i)
		}
		seen := make(map[string]struct{}, len(ws.DataSources))
		for j, ds := range ws.DataSources {
			if ds.ID == "" {
				return fmt.Errorf("host: worksheet %s data source at index %d is missing id", ws.Name, j)
			}
			if _, ok := seen[ds.ID]; ok {
				return fmt.Errorf("host: worksheet %s lists data source %s twice", ws.Name, ds.ID)
			}
			seen[ds.ID] = struct{}{}
		}
	}
	return nil
}
