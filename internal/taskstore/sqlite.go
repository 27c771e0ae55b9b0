package taskstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sqliteStore is the SQLite implementation of Store.
type sqliteStore struct {
	DB *sql.DB
}

// OpenSQLite opens (creating if needed) the task database at
// home/protected/tasks.sqlite and runs migrations.
func OpenSQLite(home string) (Store, error) {
	dbPath := filepath.Join(home, "protected", "tasks.sqlite")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &sqliteStore{DB: db}
	if err := s.initPragmas(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *sqliteStore) initPragmas(ctx context.Context) error {
	// WAL yields much better concurrency for parallel task sends.
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) Upsert(ctx context.Context, id, sessionID string) (a2a.Task, error) {
	now := time.Now().UTC()
	// INSERT OR IGNORE makes the create race-free; the losing writer reads
	// back whatever the winner created.
	_, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO tasks(id, session_id, state, state_at, artifacts, created_at, updated_at)
		 VALUES(?, ?, ?, ?, NULL, ?, ?)`,
		id, sessionID, string(a2a.TaskStateSubmitted), now.Unix(), now.Unix(), now.Unix())
	if err != nil {
		return a2a.Task{}, err
	}
	return s.Get(ctx, id)
}

func (s *sqliteStore) Get(ctx context.Context, id string) (a2a.Task, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, session_id, state, state_at, artifacts FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (s *sqliteStore) UpdateStatus(ctx context.Context, id string, status a2a.TaskStatus, artifacts []a2a.Artifact) (a2a.Task, error) {
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now().UTC()
	}
	var res sql.Result
	var err error
	if artifacts != nil {
		blob, merr := json.Marshal(artifacts)
		if merr != nil {
			return a2a.Task{}, merr
		}
		res, err = s.DB.ExecContext(ctx,
			`UPDATE tasks SET state=?, state_at=?, artifacts=?, updated_at=? WHERE id=?`,
			string(status.State), status.Timestamp.Unix(), string(blob), time.Now().Unix(), id)
	} else {
		res, err = s.DB.ExecContext(ctx,
			`UPDATE tasks SET state=?, state_at=?, updated_at=? WHERE id=?`,
			string(status.State), status.Timestamp.Unix(), time.Now().Unix(), id)
	}
	if err != nil {
		return a2a.Task{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return a2a.Task{}, ErrTaskNotFound
	}
	return s.Get(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (a2a.Task, error) {
	var t a2a.Task
	var state string
	var stateAt int64
	var artifacts sql.NullString
	if err := row.Scan(&t.ID, &t.SessionID, &state, &stateAt, &artifacts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a2a.Task{}, ErrTaskNotFound
		}
		return a2a.Task{}, err
	}
	t.Status = a2a.TaskStatus{State: a2a.TaskState(state), Timestamp: time.Unix(stateAt, 0).UTC()}
	if artifacts.Valid && artifacts.String != "" {
		if err := json.Unmarshal([]byte(artifacts.String), &t.Artifacts); err != nil {
			return a2a.Task{}, fmt.Errorf("decode artifacts for task %s: %w", t.ID, err)
		}
	}
	return t, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at INTEGER NOT NULL
);`); err != nil {
		return err
	}

	applied := make(map[int]bool)
	rows, err := s.DB.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	type migration struct {
		version int
		name    string
		sql     string
	}
	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	var migs []migration
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		v, err := strconv.Atoi(strings.SplitN(strings.TrimSuffix(f.Name(), ".sql"), "_", 2)[0])
		if err != nil {
			return fmt.Errorf("invalid migration filename: %s", f.Name())
		}
		body, err := migrationsFS.ReadFile("migrations/" + f.Name())
		if err != nil {
			return err
		}
		migs = append(migs, migration{v, f.Name(), string(body)})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].version < migs[j].version })

	for _, m := range migs {
		if applied[m.version] {
			continue
		}
		tx, err := s.DB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)`, m.version, time.Now().Unix()); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
