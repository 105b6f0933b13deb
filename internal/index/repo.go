package index

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/jotbox/internal/models"
)

// Load returns every stored entry ordered by file.
func (db *DB) Load(ctx context.Context) ([]models.NoteMetadata, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT file, title, date FROM note_meta ORDER BY file`)
	if err != nil {
		return nil, fmt.Errorf("index: load: %w", err)
	}
	defer rows.Close()

	var out []models.NoteMetadata
	for rows.Next() {
		var (
			m    models.NoteMetadata
			date sql.NullString
		)
		if err := rows.Scan(&m.File, &m.Title, &date); err != nil {
			return nil, fmt.Errorf("index: scan: %w", err)
		}
		if date.Valid {
			d := date.String
			m.Date = &d
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Save replaces the whole table with notes in a single transaction.
func (db *DB) Save(ctx context.Context, notes []models.NoteMetadata) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM note_meta`); err != nil {
		return fmt.Errorf("index: clear: %w", err)
	}
	if len(notes) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO note_meta (file, title, date) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, n := range notes {
			var date sql.NullString
			if n.Date != nil {
				date = sql.NullString{String: *n.Date, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, n.File, n.Title, date); err != nil {
				return fmt.Errorf("index: insert %s: %w", n.File, err)
			}
		}
	}
	return tx.Commit()
}
