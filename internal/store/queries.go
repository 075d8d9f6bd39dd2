package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/blackwell-systems/modman/internal/install"
	"github.com/blackwell-systems/modman/internal/workshop"
)

// Installed mod operations

// IndexMod inserts or replaces the index row for an installed mod.
func (s *Store) IndexMod(appID uint32, installPath string, rec *install.ModRecord) error {
	version := ""
	if rec.Version != nil {
		version = *rec.Version
	}
	return s.UpsertMod(&InstalledMod{
		AppID:       appID,
		Identifier:  rec.Identifier,
		Title:       rec.Title,
		PackFile:    rec.PackFile,
		Version:     version,
		InstallPath: installPath,
		InstalledAt: rec.CreatedTime(),
	})
}

// UpsertMod inserts or replaces an installed mod row.
func (s *Store) UpsertMod(mod *InstalledMod) error {
	query := `
		INSERT OR REPLACE INTO installed_mods
		(app_id, identifier, title, pack_file, version, install_path, installed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		mod.AppID,
		mod.Identifier,
		mod.Title,
		mod.PackFile,
		mod.Version,
		mod.InstallPath,
		mod.InstalledAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to index mod %d/%s: %w", mod.AppID, mod.Identifier, classify(err))
	}

	return nil
}

// GetMod retrieves one installed mod.
func (s *Store) GetMod(appID uint32, identifier string) (*InstalledMod, error) {
	query := `
		SELECT app_id, identifier, title, pack_file, version, install_path, installed_at
		FROM installed_mods
		WHERE app_id = ? AND identifier = ?
	`

	mod, err := scanMod(s.db.QueryRow(query, appID, identifier))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mod %d/%s: %w", appID, identifier, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mod %d/%s: %w", appID, identifier, classify(err))
	}

	return mod, nil
}

// ListMods returns installed mods for appID, or for every app when appID is 0.
func (s *Store) ListMods(appID uint32) ([]*InstalledMod, error) {
	query := `
		SELECT app_id, identifier, title, pack_file, version, install_path, installed_at
		FROM installed_mods
		WHERE ? = 0 OR app_id = ?
		ORDER BY app_id, identifier
	`

	rows, err := s.db.Query(query, appID, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mods: %w", classify(err))
	}
	defer rows.Close()

	var mods []*InstalledMod
	for rows.Next() {
		mod, err := scanMod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mod row: %w", err)
		}
		mods = append(mods, mod)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mods: %w", err)
	}

	return mods, nil
}

// DeleteModByPath removes the index row whose folder is path. It reports
// whether a row was removed.
func (s *Store) DeleteModByPath(path string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM installed_mods WHERE install_path = ?`, path)
	if err != nil {
		return false, fmt.Errorf("failed to delete mod at %s: %w", path, classify(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMod(row rowScanner) (*InstalledMod, error) {
	var mod InstalledMod
	var title, packFile, version sql.NullString
	var installedAt string

	if err := row.Scan(
		&mod.AppID,
		&mod.Identifier,
		&title,
		&packFile,
		&version,
		&mod.InstallPath,
		&installedAt,
	); err != nil {
		return nil, err
	}

	mod.Title = title.String
	mod.PackFile = packFile.String
	mod.Version = version.String

	t, err := time.Parse(time.RFC3339, installedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse installed_at for %s: %w", mod.Identifier, err)
	}
	mod.InstalledAt = t

	return &mod, nil
}

// Operation log

// RecordOperation appends a workshop operation to the audit log.
func (s *Store) RecordOperation(rec *workshop.OperationRecord) error {
	query := `
		INSERT INTO operations
		(request_id, kind, app_id, item_id, outcome, error, pumps, elapsed_ms, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.RequestID.String(),
		rec.Kind,
		rec.AppID,
		int64(rec.ItemID),
		rec.Outcome.String(),
		rec.Error,
		rec.Pumps,
		rec.Elapsed.Milliseconds(),
		rec.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record operation %s: %w", rec.RequestID, classify(err))
	}

	return nil
}

// ListOperations returns the most recent operations, newest first.
func (s *Store) ListOperations(limit int) ([]*Operation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT request_id, kind, app_id, item_id, outcome, error, pumps, elapsed_ms, finished_at
		FROM operations
		ORDER BY finished_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", classify(err))
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		var op Operation
		var itemID int64
		var errText sql.NullString
		var finishedAt string

		if err := rows.Scan(
			&op.RequestID,
			&op.Kind,
			&op.AppID,
			&itemID,
			&op.Outcome,
			&errText,
			&op.Pumps,
			&op.ElapsedMS,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}

		op.ItemID = uint64(itemID)
		op.Error = errText.String
		op.FinishedAt, err = time.Parse(time.RFC3339, finishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at for %s: %w", op.RequestID, err)
		}

		ops = append(ops, &op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}

	return ops, nil
}
