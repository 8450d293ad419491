package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

const historySchemaVersion = 1

// ErrSchemaMismatch is returned by Open when the history database was
// written by a different schema version.
var ErrSchemaMismatch = errors.New("history schema mismatch")

// initSchema creates the tables on first use and otherwise checks that the
// stored version matches historySchemaVersion. History is disposable, so a
// mismatch asks the user to remove the file instead of migrating.
func (s *Store) initSchema(ctx context.Context) error {
	found, err := s.storedSchemaVersion(ctx)
	switch {
	case err != nil:
		return err
	case found == 0:
		return s.applySchema(ctx)
	case found != historySchemaVersion:
		return fmt.Errorf("%w: %s is at version %d, hitstudio expects %d; remove it to start a fresh history",
			ErrSchemaMismatch, s.path, found, historySchemaVersion)
	}
	return nil
}

// storedSchemaVersion reports 0 for a database that has never been set up.
func (s *Store) storedSchemaVersion(ctx context.Context) (int, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("inspect history schema: %w", err)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read history schema version: %w", err)
	}
	return version, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history schema: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply history schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, historySchemaVersion); err != nil {
		return fmt.Errorf("stamp history schema: %w", err)
	}
	return tx.Commit()
}
