// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/typemaster/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Store wraps SQLite access for records and paragraph history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps pragmas and write ordering consistent.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS paragraphs (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			tier TEXT NOT NULL,
			paragraph_index INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS paragraph_mistakes (
			paragraph_id INTEGER NOT NULL,
			char TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (paragraph_id, char)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_paragraphs_ended_at ON paragraphs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_paragraphs_tier ON paragraphs(tier);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Get returns the value stored under key. The boolean is false when the key
// does not exist.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(time.Now()))
	return err
}

// InsertParagraph stores a completed paragraph and its mistake tally.
func (s *Store) InsertParagraph(ctx context.Context, p model.ParagraphResult, mistakes []model.CharMistakes) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO paragraphs (run_id, tier, paragraph_index, started_at, ended_at, correct, incorrect, accuracy, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RunID,
		string(p.Tier),
		p.ParagraphIndex,
		formatTime(p.StartedAt),
		formatTime(p.EndedAt),
		p.Correct,
		p.Incorrect,
		p.Accuracy,
		p.DurationMs(),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(mistakes) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO paragraph_mistakes (paragraph_id, char, count) VALUES (?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, m := range mistakes {
			if _, err = stmt.ExecContext(ctx, id, m.Char, m.Count); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWeakChars sums mistakes per expected character over the most recent
// paragraphs of a tier. An empty tier matches every tier.
func (s *Store) GetWeakChars(ctx context.Context, window int, tier model.Tier) ([]model.CharAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent AS (
		SELECT id FROM paragraphs
		WHERE (? = '' OR tier = ?)
		ORDER BY ended_at DESC, id DESC
		LIMIT ?
	)
	SELECT pm.char, SUM(pm.count) AS mistakes
	FROM paragraph_mistakes pm
	JOIN recent r ON r.id = pm.paragraph_id
	GROUP BY pm.char`

	rows, err := s.db.QueryContext(ctx, query, string(tier), string(tier), window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CharAggregate
	for rows.Next() {
		var agg model.CharAggregate
		if err := rows.Scan(&agg.Char, &agg.Mistakes); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListParagraphs returns stored paragraphs filtered by stats config, oldest first.
func (s *Store) ListParagraphs(ctx context.Context, cfg model.StatsConfig) ([]model.ParagraphAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Tier != "" {
		clauses = append(clauses, "tier = ?")
		args = append(args, string(cfg.Tier))
	}
	query := fmt.Sprintf(`SELECT id, run_id, tier, paragraph_index, ended_at, correct, incorrect, duration_ms
		FROM paragraphs
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var paragraphs []model.ParagraphAggregate
	for rows.Next() {
		var agg model.ParagraphAggregate
		var tier, endedAt string
		if err := rows.Scan(&agg.ID, &agg.RunID, &tier, &agg.ParagraphIndex, &endedAt, &agg.Correct, &agg.Incorrect, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.Tier = model.Tier(tier)
		agg.EndedAt = parsed
		paragraphs = append(paragraphs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return paragraphs, nil
}

// DeleteHistory removes stored paragraphs for a tier, or all tiers when tier is empty.
func (s *Store) DeleteHistory(ctx context.Context, tier model.Tier) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmts := []string{
		`DELETE FROM paragraph_mistakes WHERE paragraph_id IN (SELECT id FROM paragraphs WHERE (? = '' OR tier = ?))`,
		`DELETE FROM paragraphs WHERE (? = '' OR tier = ?)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, string(tier), string(tier)); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
			return err
		}
	}
	return tx.Commit()
}
