package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/samber/lo"
)

// Schema files live under migrations/ as NNN_name.sql. fs.Glob returns them in
// lexical order, which is the order they run in.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

const ledgerDDL = `CREATE TABLE IF NOT EXISTS _migrations (
	name TEXT PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// ApplyMigrations brings the directory or cache database up to the embedded schema
// and returns the files it ran. A file is recorded in the same transaction that runs
// it, so a crash mid-file leaves it pending for the next start.
func ApplyMigrations(db *DB) ([]string, error) {
	if _, err := db.Exec(ledgerDDL); err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}

	done, err := appliedSchemaFiles(db.DB)
	if err != nil {
		return nil, fmt.Errorf("listing applied migrations: %w", err)
	}

	files, err := fs.Glob(schemaFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migration files: %w", err)
	}
	pending := lo.Reject(files, func(f string, _ int) bool { return done[path.Base(f)] })

	ran := make([]string, 0, len(pending))
	for _, f := range pending {
		name := path.Base(f)
		ddl, err := schemaFS.ReadFile(f)
		if err != nil {
			return ran, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := db.Transaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(string(ddl)); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO _migrations (name) VALUES (?)`, name)
			return err
		}); err != nil {
			return ran, fmt.Errorf("applying migration %s: %w", name, err)
		}
		ran = append(ran, name)
	}
	return ran, nil
}

func appliedSchemaFiles(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM _migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}
