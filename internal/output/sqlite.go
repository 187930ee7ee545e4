package output

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
)

const snapshotDDL = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);
CREATE TABLE relations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	schema     TEXT NOT NULL,
	name       TEXT NOT NULL,
	definition TEXT,
	UNIQUE (kind, schema, name)
);
CREATE TABLE columns (
	relation_id   INTEGER NOT NULL REFERENCES relations(id),
	ordinal       INTEGER NOT NULL,
	name          TEXT NOT NULL,
	type          TEXT NOT NULL,
	native_type   TEXT,
	is_array      BOOLEAN,
	nullable      BOOLEAN,
	default_value TEXT,
	is_identity   BOOLEAN,
	PRIMARY KEY (relation_id, ordinal)
);
CREATE TABLE indexes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	relation_id  INTEGER NOT NULL REFERENCES relations(id),
	name         TEXT NOT NULL,
	is_primary   BOOLEAN,
	is_unique    BOOLEAN,
	is_clustered BOOLEAN
);
CREATE TABLE index_columns (
	index_id    INTEGER NOT NULL REFERENCES indexes(id),
	position    INTEGER NOT NULL,
	column_name TEXT NOT NULL,
	PRIMARY KEY (index_id, position)
);
CREATE TABLE foreign_keys (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	relation_id    INTEGER NOT NULL REFERENCES relations(id),
	name           TEXT NOT NULL,
	references_rel TEXT NOT NULL,
	cascade_delete BOOLEAN,
	cascade_update BOOLEAN
);
CREATE TABLE foreign_key_columns (
	foreign_key_id    INTEGER NOT NULL REFERENCES foreign_keys(id),
	position          INTEGER NOT NULL,
	column_name       TEXT NOT NULL,
	referenced_column TEXT NOT NULL,
	PRIMARY KEY (foreign_key_id, position)
);
CREATE TABLE routines (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	schema        TEXT NOT NULL,
	name          TEXT NOT NULL,
	specific_name TEXT NOT NULL UNIQUE,
	kind          TEXT,
	returns       TEXT,
	definition    TEXT
);
CREATE TABLE parameters (
	routine_id  INTEGER NOT NULL REFERENCES routines(id),
	ordinal     INTEGER NOT NULL,
	name        TEXT,
	direction   TEXT NOT NULL,
	type        TEXT NOT NULL,
	native_type TEXT,
	PRIMARY KEY (routine_id, ordinal)
);`

// WriteSQLite stores doc as a queryable SQLite database at path, replacing
// any existing file.
func WriteSQLite(ctx context.Context, path string, doc *Document) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("sqlite: remove old snapshot: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("sqlite: open db: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, snapshotDDL); err != nil {
		return fmt.Errorf("sqlite: create tables: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	s := &snapshot{ctx: ctx, tx: tx}
	s.exec(`INSERT INTO meta (key, value) VALUES ('database', ?)`, doc.Database)
	for _, t := range doc.Tables {
		s.table(t)
	}
	for _, v := range doc.Views {
		id := s.insert(`INSERT INTO relations (kind, schema, name, definition) VALUES ('view', ?, ?, ?)`,
			v.Schema, v.Name, v.Definition)
		s.columns(id, v.Columns)
	}
	for _, c := range doc.Commands {
		s.routine(c)
	}
	if s.err != nil {
		return fmt.Errorf("sqlite: %w", s.err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// snapshot carries the first write error; later calls are no-ops.
type snapshot struct {
	ctx context.Context
	tx  *sql.Tx
	err error
}

func (s *snapshot) exec(query string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = s.tx.ExecContext(s.ctx, query, args...)
}

func (s *snapshot) insert(query string, args ...any) int64 {
	if s.err != nil {
		return 0
	}
	res, err := s.tx.ExecContext(s.ctx, query, args...)
	if err != nil {
		s.err = err
		return 0
	}
	id, err := res.LastInsertId()
	if err != nil {
		s.err = err
	}
	return id
}

func (s *snapshot) table(t TableDoc) {
	id := s.insert(`INSERT INTO relations (kind, schema, name) VALUES ('table', ?, ?)`, t.Schema, t.Name)
	s.columns(id, t.Columns)
	for _, idx := range t.Indexes {
		idxID := s.insert(`INSERT INTO indexes (relation_id, name, is_primary, is_unique, is_clustered) VALUES (?, ?, ?, ?, ?)`,
			id, idx.Name, idx.Primary, idx.Unique, idx.Clustered)
		for i, col := range idx.Columns {
			s.exec(`INSERT INTO index_columns (index_id, position, column_name) VALUES (?, ?, ?)`, idxID, i+1, col)
		}
	}
	for _, fk := range t.ForeignKeys {
		fkID := s.insert(`INSERT INTO foreign_keys (relation_id, name, references_rel, cascade_delete, cascade_update) VALUES (?, ?, ?, ?, ?)`,
			id, fk.Name, fk.References, fk.CascadeDelete, fk.CascadeUpdate)
		for i, col := range fk.Columns {
			s.exec(`INSERT INTO foreign_key_columns (foreign_key_id, position, column_name, referenced_column) VALUES (?, ?, ?, ?)`,
				fkID, i+1, col, fk.ReferencedColumns[i])
		}
	}
}

func (s *snapshot) columns(relID int64, cols []ColumnDoc) {
	for _, c := range cols {
		s.exec(`INSERT INTO columns (relation_id, ordinal, name, type, native_type, is_array, nullable, default_value, is_identity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			relID, c.Ordinal, c.Name, c.Type, c.NativeType, c.IsArray, c.Nullable, c.Default, c.Identity)
	}
}

func (s *snapshot) routine(c CommandDoc) {
	id := s.insert(`INSERT INTO routines (schema, name, specific_name, kind, returns, definition) VALUES (?, ?, ?, ?, ?, ?)`,
		c.Schema, c.Name, c.SpecificName, c.Kind, c.Returns, c.Definition)
	for _, p := range c.Parameters {
		s.exec(`INSERT INTO parameters (routine_id, ordinal, name, direction, type, native_type) VALUES (?, ?, ?, ?, ?, ?)`,
			id, p.Ordinal, p.Name, p.Direction, p.Type, p.NativeType)
	}
}
