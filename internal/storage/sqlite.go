package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"typelift/internal/metamodel"
	"typelift/internal/pipeline"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT,
			mode TEXT,
			created_at INTEGER,
			added INTEGER,
			removed INTEGER,
			diff JSON
		);`,
		`CREATE TABLE IF NOT EXISTS stages (
			run_id TEXT,
			seq INTEGER,
			pass TEXT,
			stats JSON,
			features_before INTEGER,
			features_after INTEGER,
			duration_ns INTEGER,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS types (
			run_id TEXT,
			seq INTEGER,
			name TEXT,
			sealed INTEGER,
			supertypes JSON,
			PRIMARY KEY (run_id, name)
		);`,
		`CREATE TABLE IF NOT EXISTS features (
			run_id TEXT,
			type_name TEXT,
			key TEXT,
			PRIMARY KEY (run_id, type_name, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	diff, err := json.Marshal(run.Diff)
	if err != nil {
		return fmt.Errorf("failed to encode diff: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, mode, created_at, added, removed, diff)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Source, string(run.Mode), run.CreatedAt.UnixNano(), run.Added, run.Removed, diff); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	// 1. Stages
	stageStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stages (run_id, seq, pass, stats, features_before, features_after, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stageStmt.Close()

	for i, st := range run.Stages {
		stats, err := json.Marshal(st.Stats)
		if err != nil {
			return fmt.Errorf("failed to encode %s stats: %w", st.Pass, err)
		}
		if _, err := stageStmt.ExecContext(ctx, run.ID, i, st.Pass, stats, st.FeaturesBefore, st.FeaturesAfter, int64(st.Duration)); err != nil {
			return err
		}
	}

	// 2. Types and their features
	typeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO types (run_id, seq, name, sealed, supertypes) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer typeStmt.Close()

	featStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO features (run_id, type_name, key) VALUES (?, ?, ?)
		ON CONFLICT(run_id, type_name, key) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer featStmt.Close()

	for i, t := range run.Types {
		supers, err := json.Marshal(t.Supertypes)
		if err != nil {
			return fmt.Errorf("failed to encode supertypes of %s: %w", t.Name, err)
		}
		if _, err := typeStmt.ExecContext(ctx, run.ID, i, t.Name, t.Sealed, supers); err != nil {
			return err
		}
		for _, key := range t.Features {
			if _, err := featStmt.ExecContext(ctx, run.ID, t.Name, key); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (*Run, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	// Literal prefix match: % and _ in id are ordinary characters.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, mode, created_at, added, removed, diff
		FROM runs WHERE substr(id, 1, length(?)) = ?
		ORDER BY (id = ?) DESC
		LIMIT 2
	`, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	runs, err := scanRuns(rows, true)
	if err != nil {
		return nil, err
	}
	switch {
	case len(runs) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case len(runs) > 1 && runs[0].ID != id:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, id)
	}
	run := runs[0]

	if err := s.loadStages(ctx, run); err != nil {
		return nil, err
	}
	if err := s.loadTypes(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, mode, created_at, added, removed, diff
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return scanRuns(rows, false)
}

func scanRuns(rows *sql.Rows, withDiff bool) ([]*Run, error) {
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		var (
			run     Run
			mode    string
			created int64
			diff    []byte
		)
		if err := rows.Scan(&run.ID, &run.Source, &mode, &created, &run.Added, &run.Removed, &diff); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Mode = metamodel.IndexMode(mode)
		run.CreatedAt = time.Unix(0, created).UTC()
		if withDiff && len(diff) > 0 {
			if err := json.Unmarshal(diff, &run.Diff); err != nil {
				return nil, fmt.Errorf("failed to decode diff of %s: %w", run.ID, err)
			}
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadStages(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pass, stats, features_before, features_after, duration_ns
		FROM stages WHERE run_id = ? ORDER BY seq
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to query stages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			st       pipeline.StageResult
			stats    []byte
			duration int64
		)
		if err := rows.Scan(&st.Pass, &stats, &st.FeaturesBefore, &st.FeaturesAfter, &duration); err != nil {
			return fmt.Errorf("failed to scan stage: %w", err)
		}
		st.Duration = time.Duration(duration)
		if len(stats) > 0 {
			if err := json.Unmarshal(stats, &st.Stats); err != nil {
				return fmt.Errorf("failed to decode %s stats of %s: %w", st.Pass, run.ID, err)
			}
		}
		run.Stages = append(run.Stages, st)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadTypes(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, sealed, supertypes FROM types WHERE run_id = ? ORDER BY seq
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to query types: %w", err)
	}

	byName := make(map[string]int)
	for rows.Next() {
		var (
			t      TypeRecord
			supers []byte
		)
		if err := rows.Scan(&t.Name, &t.Sealed, &supers); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan type: %w", err)
		}
		if len(supers) > 0 {
			if err := json.Unmarshal(supers, &t.Supertypes); err != nil {
				rows.Close()
				return fmt.Errorf("failed to decode supertypes of %s: %w", t.Name, err)
			}
		}
		byName[t.Name] = len(run.Types)
		run.Types = append(run.Types, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	featRows, err := s.db.QueryContext(ctx, `
		SELECT type_name, key FROM features WHERE run_id = ? ORDER BY type_name, key
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to query features: %w", err)
	}
	defer featRows.Close()

	for featRows.Next() {
		var name, key string
		if err := featRows.Scan(&name, &key); err != nil {
			return fmt.Errorf("failed to scan feature: %w", err)
		}
		if i, ok := byName[name]; ok {
			run.Types[i].Features = append(run.Types[i].Features, key)
		}
	}
	return featRows.Err()
}

var _ Store = (*SQLiteStore)(nil)
