package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a named save does not exist.
var ErrNotFound = errors.New("save not found")

// SaveInfo describes one stored save.
type SaveInfo struct {
	ID       int64
	Name     string
	Tick     uint64
	Machines int
	SavedAt  time.Time
}

// SQLiteStore keeps named saves in a SQLite database, one row per record field.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			version INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			machines INTEGER NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS save_fields (
			save_id INTEGER NOT NULL REFERENCES saves(id) ON DELETE CASCADE,
			machine INTEGER NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (save_id, machine, key)
		);`,
		`CREATE TABLE IF NOT EXISTS save_items (
			save_id INTEGER NOT NULL REFERENCES saves(id) ON DELETE CASCADE,
			machine INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			amount INTEGER NOT NULL,
			progress REAL NOT NULL,
			PRIMARY KEY (save_id, machine, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Save stores save under name, replacing any previous save of that name.
func (s *SQLiteStore) Save(ctx context.Context, name string, save SaveFile) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM saves WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("replacing save %q: %w", name, err)
	}

	version := save.Header.Version
	if version == 0 {
		version = Version
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO saves(name, version, tick, machines, saved_at) VALUES(?,?,?,?,?)`,
		name, version, int64(save.Header.Tick), len(save.Records), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("inserting save %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save id: %w", err)
	}

	insertField, err := tx.PrepareContext(ctx, `INSERT INTO save_fields(save_id, machine, key, value) VALUES(?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare fields: %w", err)
	}
	defer insertField.Close()
	insertItem, err := tx.PrepareContext(ctx, `INSERT INTO save_items(save_id, machine, seq, kind, amount, progress) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare items: %w", err)
	}
	defer insertItem.Close()

	for i, rec := range save.Records {
		for _, k := range rec.Keys() {
			if _, err := insertField.ExecContext(ctx, id, i, k, rec.Fields[k]); err != nil {
				return 0, fmt.Errorf("inserting field %s of machine %d: %w", k, i, err)
			}
		}
		for seq, it := range rec.Items {
			if _, err := insertItem.ExecContext(ctx, id, i, seq, it.Kind, it.Amount, it.Progress); err != nil {
				return 0, fmt.Errorf("inserting item %d of machine %d: %w", seq, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Load reads the save stored under name.
func (s *SQLiteStore) Load(ctx context.Context, name string) (SaveFile, error) {
	var (
		save     SaveFile
		id       int64
		tick     int64
		machines int
	)
	row := s.db.QueryRowContext(ctx, `SELECT id, version, tick, machines FROM saves WHERE name = ?`, name)
	if err := row.Scan(&id, &save.Header.Version, &tick, &machines); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return save, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return save, fmt.Errorf("reading save %q: %w", name, err)
	}
	save.Header.Tick = uint64(tick)
	save.Records = make([]Record, machines)
	for i := range save.Records {
		save.Records[i] = NewRecord()
	}

	fields, err := s.db.QueryContext(ctx, `SELECT machine, key, value FROM save_fields WHERE save_id = ?`, id)
	if err != nil {
		return save, fmt.Errorf("reading fields: %w", err)
	}
	defer fields.Close()
	for fields.Next() {
		var (
			m          int
			key, value string
		)
		if err := fields.Scan(&m, &key, &value); err != nil {
			return save, fmt.Errorf("scanning field: %w", err)
		}
		if m >= 0 && m < machines {
			save.Records[m].SetString(key, value)
		}
	}
	if err := fields.Err(); err != nil {
		return save, fmt.Errorf("reading fields: %w", err)
	}

	items, err := s.db.QueryContext(ctx, `SELECT machine, kind, amount, progress FROM save_items WHERE save_id = ? ORDER BY machine, seq`, id)
	if err != nil {
		return save, fmt.Errorf("reading items: %w", err)
	}
	defer items.Close()
	for items.Next() {
		var (
			m  int
			it ItemRecord
		)
		if err := items.Scan(&m, &it.Kind, &it.Amount, &it.Progress); err != nil {
			return save, fmt.Errorf("scanning item: %w", err)
		}
		if m >= 0 && m < machines {
			save.Records[m].Items = append(save.Records[m].Items, it)
		}
	}
	if err := items.Err(); err != nil {
		return save, fmt.Errorf("reading items: %w", err)
	}
	return save, nil
}

// List returns every stored save, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]SaveInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, tick, machines, saved_at FROM saves ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var out []SaveInfo
	for rows.Next() {
		var (
			info    SaveInfo
			tick    int64
			savedAt string
		)
		if err := rows.Scan(&info.ID, &info.Name, &tick, &info.Machines, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning save: %w", err)
		}
		info.Tick = uint64(tick)
		info.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
