// Package install places archive-packaged mods into the per-game folder
// layout <base>/<app_id>/<identifier>.
//
// An install validates its inputs and the target folder before touching the
// filesystem, creates the folder, writes meta.json and then runs the
// extraction tool. Metadata is written before extraction, so a failed
// extraction leaves a folder with valid metadata behind; re-running the
// install overwrites both.
package install

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/blackwell-systems/modman/internal/apperr"
	"github.com/blackwell-systems/modman/internal/pathguard"
)

const op = "install"

// Indexer records successful installs. The sqlite store satisfies it.
type Indexer interface {
	IndexMod(appID uint32, installPath string, rec *ModRecord) error
}

// Installer runs install transactions.
type Installer struct {
	Fs        afero.Fs
	Extractor Extractor
	Indexer   Indexer
	Now       func() time.Time
	Logger    *slog.Logger

	// OnBatchItem, if set, is called from batch workers as each mod
	// finishes. It must be safe for concurrent use.
	OnBatchItem func(identifier string, err error)
}

// New returns an Installer on the real filesystem.
func New(extractor Extractor, indexer Indexer, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{
		Fs:        afero.NewOsFs(),
		Extractor: extractor,
		Indexer:   indexer,
		Now:       time.Now,
		Logger:    logger,
	}
}

// Result describes a completed install.
type Result struct {
	AppID  uint32
	Target string
	Record *ModRecord
}

// Install extracts details.PackFilePath from details.ZipFilePath into
// <basePath>/<appID>/<details.Identifier>.
func (in *Installer) Install(ctx context.Context, appID uint32, details ModDetails, basePath string) (*Result, error) {
	logger := in.logger().With("app_id", appID, "identifier", details.Identifier)

	if strings.TrimSpace(details.ZipFilePath) == "" {
		return nil, apperr.New(apperr.InvalidInput, op, "archive path cannot be empty")
	}
	if exists, _ := afero.Exists(in.Fs, details.ZipFilePath); !exists {
		return nil, apperr.Newf(apperr.InvalidInput, op, "archive file not found: %s", details.ZipFilePath)
	}
	if strings.TrimSpace(details.PackFilePath) == "" {
		return nil, apperr.New(apperr.InvalidInput, op, "pack file path cannot be empty")
	}

	if isDir, err := afero.IsDir(in.Fs, basePath); err != nil || !isDir {
		return nil, apperr.Newf(apperr.InvalidInput, op, "invalid mod installation path: %s", basePath)
	}

	target := pathguard.Target{BasePath: basePath, AppID: appID, ItemID: details.Identifier}
	modDir, err := target.Check()
	if err != nil {
		logger.Warn("rejected install target", "target", target.ResolvedPath(), "error", err)
		return nil, err
	}

	if err := in.Fs.MkdirAll(modDir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.IoFailure, op, "failed to create mod directory", err)
	}

	rec := NewRecord(details, in.now())
	if err := in.writeRecord(modDir, rec); err != nil {
		return nil, err
	}
	logger.Debug("metadata written", "dir", modDir)

	if in.Extractor == nil {
		return nil, apperr.New(apperr.ToolFailure, op, "no extraction tool configured")
	}
	if err := in.Extractor.Extract(ctx, details.ZipFilePath, details.PackFilePath, modDir); err != nil {
		logger.Error("extraction failed", "error", err)
		return nil, err
	}

	if in.Indexer != nil {
		if err := in.Indexer.IndexMod(appID, modDir, rec); err != nil {
			logger.Warn("failed to index installed mod", "error", err)
		}
	}

	logger.Info("mod installed", "dir", modDir, "pack_file", rec.PackFile)
	return &Result{AppID: appID, Target: modDir, Record: rec}, nil
}

func (in *Installer) writeRecord(dir string, rec *ModRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.IoFailure, op, "failed to serialize metadata", err)
	}
	if err := afero.WriteFile(in.Fs, filepath.Join(dir, MetaFileName), data, 0o644); err != nil {
		return apperr.Wrap(apperr.IoFailure, op, "failed to write metadata", err)
	}
	return nil
}

func (in *Installer) now() time.Time {
	if in.Now == nil {
		return time.Now()
	}
	return in.Now()
}

func (in *Installer) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.Default()
	}
	return in.Logger
}
