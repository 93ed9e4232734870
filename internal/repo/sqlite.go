// internal/repo/sqlite.go
//
// SQLite implementation of Store.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, immediate transactions).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Version-checked writes: the dbVersion read, the writes and the increment
//     share one BEGIN IMMEDIATE transaction, so two writers cannot both pass the check.
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/orderlygame/orderly/assets"
	"github.com/orderlygame/orderly/internal/puzzle"
)

const versionKey = "dbVersion"

type sqliteStore struct {
	db *sql.DB
}

/**
 * OpenSQLite opens (and creates if missing) the SQLite database at path and
 * applies the embedded migrations.
 *
 * - Ensures the parent directory exists for relative paths (e.g. ./data/orderly.db).
 * - Configures busy timeout, WAL journaling and BEGIN IMMEDIATE for transactions.
 */
func OpenSQLite(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if err := migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

/**
 * migrate applies *.sql files from fsys in lexical order.
 *
 * - Uses a _migrations table to track applied files.
 * - Each file runs inside its own transaction together with its bookkeeping row.
 */
func migrate(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}
		body, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectRecord = `SELECT day, question, intended_order, starting_order, also_accepts,
	highest_text, lowest_text, author, last_modified FROM puzzles`

func (s *sqliteStore) List(ctx context.Context) ([]puzzle.Record, error) {
	return listRecords(ctx, s.db)
}

func (s *sqliteStore) Get(ctx context.Context, day int) (puzzle.Record, error) {
	return getRecord(ctx, s.db, day)
}

func (s *sqliteStore) Version(ctx context.Context) (int64, error) {
	return readVersion(ctx, s.db)
}

func (s *sqliteStore) Update(ctx context.Context, expected int64, fn func(Tx) error) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := readVersion(ctx, tx)
	if err != nil {
		return 0, err
	}
	if expected != AnyVersion && expected != cur {
		return cur, fmt.Errorf("%w: expected version %d, have %d", puzzle.ErrConcurrentEdit, expected, cur)
	}
	if err := fn(&sqliteTx{q: tx}); err != nil {
		return cur, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value = value + 1 WHERE key = ?`, versionKey); err != nil {
		return cur, fmt.Errorf("bump version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return cur, fmt.Errorf("commit: %w", err)
	}
	return cur + 1, nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) CreateAccount(ctx context.Context, a Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		a.ID, a.Username, a.PasswordHash, a.CreatedAt.UTC().Format(time.RFC3339))
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrUsernameTaken
	}
	return err
}

func (s *sqliteStore) AccountByUsername(ctx context.Context, username string) (Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM accounts WHERE username = ? COLLATE NOCASE`, username))
}

func (s *sqliteStore) AccountByID(ctx context.Context, id string) (Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM accounts WHERE id = ?`, id))
}

func scanAccount(row *sql.Row) (Account, error) {
	var a Account
	var created string
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return a, nil
}

type sqliteTx struct {
	q queryer
}

func (t *sqliteTx) List(ctx context.Context) ([]puzzle.Record, error) {
	return listRecords(ctx, t.q)
}

func (t *sqliteTx) Get(ctx context.Context, day int) (puzzle.Record, error) {
	return getRecord(ctx, t.q, day)
}

func (t *sqliteTx) Put(ctx context.Context, r puzzle.Record) error {
	intended, err := json.Marshal(r.IntendedOrder)
	if err != nil {
		return err
	}
	var starting sql.NullString
	if len(r.StartingOrder) > 0 {
		b, err := json.Marshal(r.StartingOrder)
		if err != nil {
			return err
		}
		starting = sql.NullString{String: string(b), Valid: true}
	}
	accepts := r.AlsoAccepts
	if accepts == nil {
		accepts = map[string][]string{}
	}
	acc, err := json.Marshal(accepts)
	if err != nil {
		return err
	}
	_, err = t.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO puzzles
			(day, question, intended_order, starting_order, also_accepts,
			 highest_text, lowest_text, author, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Day, r.Question, string(intended), starting, string(acc),
		r.HighestText, r.LowestText, r.Author, r.LastModified)
	if err != nil {
		return fmt.Errorf("put day %d: %w", r.Day, err)
	}
	return nil
}

func (t *sqliteTx) Delete(ctx context.Context, day int) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM puzzles WHERE day = ?`, day)
	return err
}

func (t *sqliteTx) DeleteAll(ctx context.Context) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM puzzles`)
	return err
}

func readVersion(ctx context.Context, q queryer) (int64, error) {
	var v int64
	if err := q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, versionKey).Scan(&v); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return v, nil
}

func listRecords(ctx context.Context, q queryer) ([]puzzle.Record, error) {
	rows, err := q.QueryContext(ctx, selectRecord+` ORDER BY day`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []puzzle.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func getRecord(ctx context.Context, q queryer, day int) (puzzle.Record, error) {
	r, err := scanRecord(q.QueryRowContext(ctx, selectRecord+` WHERE day = ?`, day))
	if errors.Is(err, sql.ErrNoRows) {
		return puzzle.Record{}, fmt.Errorf("%w: day %d", puzzle.ErrNotFound, day)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (puzzle.Record, error) {
	var (
		r                 puzzle.Record
		intended, accepts string
		starting          sql.NullString
	)
	if err := s.Scan(&r.Day, &r.Question, &intended, &starting, &accepts,
		&r.HighestText, &r.LowestText, &r.Author, &r.LastModified); err != nil {
		return puzzle.Record{}, err
	}
	if err := json.Unmarshal([]byte(intended), &r.IntendedOrder); err != nil {
		return puzzle.Record{}, fmt.Errorf("day %d intended_order: %w", r.Day, err)
	}
	if starting.Valid && strings.TrimSpace(starting.String) != "" {
		if err := json.Unmarshal([]byte(starting.String), &r.StartingOrder); err != nil {
			return puzzle.Record{}, fmt.Errorf("day %d starting_order: %w", r.Day, err)
		}
	}
	if err := json.Unmarshal([]byte(accepts), &r.AlsoAccepts); err != nil {
		return puzzle.Record{}, fmt.Errorf("day %d also_accepts: %w", r.Day, err)
	}
	return r, nil
}
