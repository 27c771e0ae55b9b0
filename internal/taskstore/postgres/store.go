// Package postgres is the PostgreSQL implementation of taskstore.Store.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/taskstore"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the PostgreSQL implementation of taskstore.Store.
type Store struct {
	Pool *pgxpool.Pool
}

// Open opens a connection pool and runs migrations. dsn may be empty to use
// DATABASE_URL env.
func Open(dsn string) (taskstore.Store, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, errors.New("postgres DSN or DATABASE_URL required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 20
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	s := &Store{Pool: pool}
	if err := s.migrate(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s == nil || s.Pool == nil {
		return nil
	}
	s.Pool.Close()
	return nil
}

func (s *Store) Upsert(ctx context.Context, id, sessionID string) (a2a.Task, error) {
	now := time.Now().UTC()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO tasks(id, session_id, state, state_at, artifacts, created_at, updated_at)
		 VALUES($1, $2, $3, $4, NULL, $5, $5)
		 ON CONFLICT (id) DO NOTHING`,
		id, sessionID, string(a2a.TaskStateSubmitted), now.Unix(), now.Unix())
	if err != nil {
		return a2a.Task{}, err
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id string) (a2a.Task, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, session_id, state, state_at, artifacts FROM tasks WHERE id = $1`, id)
	var t a2a.Task
	var state string
	var stateAt int64
	var artifacts *string
	if err := row.Scan(&t.ID, &t.SessionID, &state, &stateAt, &artifacts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a2a.Task{}, taskstore.ErrTaskNotFound
		}
		return a2a.Task{}, err
	}
	t.Status = a2a.TaskStatus{State: a2a.TaskState(state), Timestamp: time.Unix(stateAt, 0).UTC()}
	if artifacts != nil && *artifacts != "" {
		if err := json.Unmarshal([]byte(*artifacts), &t.Artifacts); err != nil {
			return a2a.Task{}, fmt.Errorf("decode artifacts for task %s: %w", t.ID, err)
		}
	}
	return t, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status a2a.TaskStatus, artifacts []a2a.Artifact) (a2a.Task, error) {
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now().UTC()
	}
	var tag interface{ RowsAffected() int64 }
	var err error
	if artifacts != nil {
		blob, merr := json.Marshal(artifacts)
		if merr != nil {
			return a2a.Task{}, merr
		}
		tag, err = s.Pool.Exec(ctx,
			`UPDATE tasks SET state=$1, state_at=$2, artifacts=$3, updated_at=$4 WHERE id=$5`,
			string(status.State), status.Timestamp.Unix(), string(blob), time.Now().Unix(), id)
	} else {
		tag, err = s.Pool.Exec(ctx,
			`UPDATE tasks SET state=$1, state_at=$2, updated_at=$3 WHERE id=$4`,
			string(status.State), status.Timestamp.Unix(), time.Now().Unix(), id)
	}
	if err != nil {
		return a2a.Task{}, err
	}
	if tag.RowsAffected() == 0 {
		return a2a.Task{}, taskstore.ErrTaskNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) migrate(ctx context.Context) error {
	applied := make(map[int]bool)
	rows, err := s.Pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var v int
			if err := rows.Scan(&v); err != nil {
				break
			}
			applied[v] = true
		}
	}

	type mig struct {
		version int
		sql     string
	}
	var migs []mig
	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		v, err := strconv.Atoi(strings.SplitN(strings.TrimSuffix(f.Name(), ".sql"), "_", 2)[0])
		if err != nil {
			continue
		}
		if applied[v] {
			continue
		}
		body, _ := migrationsFS.ReadFile("migrations/" + f.Name())
		migs = append(migs, mig{v, string(body)})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].version < migs[j].version })

	for _, m := range migs {
		if _, err := s.Pool.Exec(ctx, m.sql); err != nil && !strings.Contains(err.Error(), "already exists") {
			return err
		}
		if _, err := s.Pool.Exec(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES($1, $2) ON CONFLICT (version) DO NOTHING`, m.version, time.Now().Unix()); err != nil {
			return err
		}
	}
	return nil
}
