package install

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// MetaFileName is the metadata file written into every mod folder.
const MetaFileName = "meta.json"

// ModDetails describes a mod to install. ZipFilePath is the archive on local
// disk and PackFilePath the file inside it to extract.
type ModDetails struct {
	Identifier    string  `json:"identifier" yaml:"identifier"`
	Title         string  `json:"title" yaml:"title"`
	ZipFilePath   string  `json:"zip_file_path" yaml:"zip_file_path"`
	PackFilePath  string  `json:"pack_file_path" yaml:"pack_file_path"`
	DownloadedURL *string `json:"downloaded_url,omitempty" yaml:"downloaded_url,omitempty"`
	Description   *string `json:"description,omitempty" yaml:"description,omitempty"`
	Categories    *string `json:"categories,omitempty" yaml:"categories,omitempty"`
	URL           *string `json:"url,omitempty" yaml:"url,omitempty"`
	PreviewURL    *string `json:"preview_url,omitempty" yaml:"preview_url,omitempty"`
	Version       *string `json:"version,omitempty" yaml:"version,omitempty"`
}

// ModRecord is the metadata persisted as meta.json next to an installed
// mod. It is written once per install; a re-install overwrites it.
type ModRecord struct {
	Identifier    string  `json:"identifier"`
	Title         string  `json:"title"`
	PackFile      string  `json:"pack_file"`
	DownloadedURL *string `json:"downloaded_url,omitempty"`
	Description   *string `json:"description,omitempty"`
	Categories    *string `json:"categories,omitempty"`
	URL           *string `json:"url,omitempty"`
	PreviewURL    *string `json:"preview_url,omitempty"`
	Version       *string `json:"version,omitempty"`
	CreatedAt     int64   `json:"created_at"`
}

// NewRecord builds the metadata for details. PackFile is the base name of
// the pack file path.
func NewRecord(details ModDetails, now time.Time) *ModRecord {
	return &ModRecord{
		Identifier:    details.Identifier,
		Title:         details.Title,
		PackFile:      packFileName(details.PackFilePath),
		DownloadedURL: details.DownloadedURL,
		Description:   details.Description,
		Categories:    details.Categories,
		URL:           details.URL,
		PreviewURL:    details.PreviewURL,
		Version:       details.Version,
		CreatedAt:     now.Unix(),
	}
}

// CreatedTime returns CreatedAt as a time.Time.
func (r *ModRecord) CreatedTime() time.Time {
	return time.Unix(r.CreatedAt, 0)
}

// ReadRecord loads meta.json from dir.
func ReadRecord(fs afero.Fs, dir string) (*ModRecord, error) {
	data, err := afero.ReadFile(fs, filepath.Join(dir, MetaFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var rec ModRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse metadata in %s: %w", dir, err)
	}
	return &rec, nil
}

// packFileName accepts both separators since pack paths come from archive
// listings, which use '/' regardless of platform.
func packFileName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			p = p[i+1:]
			break
		}
	}
	if p == "" || p == "." || p == ".." {
		return "Invalid pack file path"
	}
	return p
}

// StringPtr is a convenience for filling optional fields.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
