package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history (
	session_id  TEXT    NOT NULL,
	seq         INTEGER NOT NULL,
	kind        TEXT    NOT NULL DEFAULT '',
	state       BLOB    NOT NULL,
	recorded_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// SQLiteStore keeps records in a single SQLite table.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens or creates a SQLite database at path and applies the
// history schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var last sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM history WHERE session_id = ?`, rec.SessionID,
	).Scan(&last)
	if err != nil {
		return fmt.Errorf("read last seq: %w", err)
	}
	if last.Valid && uint64(last.Int64) >= rec.Seq {
		return fmt.Errorf("%w: session %s seq %d after %d", ErrSequence, rec.SessionID, rec.Seq, last.Int64)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history (session_id, seq, kind, state, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, int64(rec.Seq), rec.Kind, []byte(rec.State), rec.Timestamp.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT session_id, seq, kind, state, recorded_at FROM history WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return records, nil
}

func (s *SQLiteStore) Latest(ctx context.Context, sessionID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT session_id, seq, kind, state, recorded_at FROM history WHERE session_id = ? ORDER BY seq DESC LIMIT 1`,
		sessionID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return rec, err
}

func (s *SQLiteStore) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT DISTINCT session_id FROM history ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM history WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec        Record
		seq        int64
		state      []byte
		recordedAt int64
	)
	if err := row.Scan(&rec.SessionID, &seq, &rec.Kind, &state, &recordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Seq = uint64(seq)
	rec.State = state
	rec.Timestamp = time.UnixMilli(recordedAt).UTC()
	return rec, nil
}
