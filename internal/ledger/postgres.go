package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"loomline/pkg/platform/sentinel"
)

// Postgres persists records as an append-only version log: every Put inserts
// a new row, every Delete inserts a tombstone (NULL value). The latest row
// per key is the live record; the full row set is the history. This store is
// pure I/O—record semantics belong to the services.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the ledger table when it does not exist yet. Called
// once at startup and by integration test setup.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_records (
			id         BIGSERIAL PRIMARY KEY,
			key        TEXT NOT NULL,
			value      JSONB,
			written_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS ledger_records_key_id_idx
			ON ledger_records (key, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRecord(ctx context.Context, q dbExecutor, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM ledger_records
		WHERE key = $1
		ORDER BY id DESC
		LIMIT 1
	`
	var value []byte
	err := q.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %q: %w", key, err)
	}
	if value == nil {
		// Latest version is a tombstone.
		return nil, sentinel.ErrNotFound
	}
	return value, nil
}

func putRecord(ctx context.Context, q dbExecutor, key string, value []byte) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO ledger_records (key, value) VALUES ($1, $2)`, key, value)
	if err != nil {
		return fmt.Errorf("put record %q: %w", key, err)
	}
	return nil
}

func deleteRecord(ctx context.Context, q dbExecutor, key string) error {
	if _, err := getRecord(ctx, q, key); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO ledger_records (key, value) VALUES ($1, NULL)`, key)
	if err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	return getRecord(ctx, s.db, key)
}

func (s *Postgres) Put(ctx context.Context, key string, value []byte) error {
	return putRecord(ctx, s.db, key, value)
}

func (s *Postgres) Delete(ctx context.Context, key string) error {
	return deleteRecord(ctx, s.db, key)
}

// Query evaluates the selector against the latest live version of every key.
// The jsonb operators keep filtering inside the store, matching the contract
// that the query engine, not the caller, applies the selector.
func (s *Postgres) Query(ctx context.Context, sel Selector) (Iterator, error) {
	query := `
		SELECT key, value FROM (
			SELECT DISTINCT ON (key) key, value
			FROM ledger_records
			ORDER BY key, id DESC
		) latest
		WHERE value IS NOT NULL
		  AND value->>'assetType' = $1
	`
	args := []any{sel.AssetType}
	if sel.Type != "" {
		args = append(args, sel.Type)
		query += fmt.Sprintf(" AND value->>'type' = $%d", len(args))
	}
	if sel.MaxQuantity != nil {
		args = append(args, *sel.MaxQuantity)
		query += fmt.Sprintf(" AND (value->>'quantity')::numeric <= $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return &rowsIterator{rows: rows}, nil
}

func (s *Postgres) History(ctx context.Context, key string) (Iterator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value
		FROM ledger_records
		WHERE key = $1
		ORDER BY id DESC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("history of %q: %w", key, err)
	}
	return &rowsIterator{rows: rows}, nil
}

// InTx runs fn inside a database transaction so the match mutation's two
// writes commit or roll back together.
func (s *Postgres) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback ledger tx after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Get(ctx context.Context, key string) ([]byte, error) {
	return getRecord(ctx, t.tx, key)
}

func (t *pgTx) Put(ctx context.Context, key string, value []byte) error {
	return putRecord(ctx, t.tx, key, value)
}

func (t *pgTx) Delete(ctx context.Context, key string) error {
	return deleteRecord(ctx, t.tx, key)
}

// rowsIterator adapts sql.Rows to the Iterator contract.
type rowsIterator struct {
	rows    *sql.Rows
	current Entry
	err     error
}

func (it *rowsIterator) Next() bool {
	if !it.rows.Next() {
		return false
	}
	var key string
	var value []byte
	if err := it.rows.Scan(&key, &value); err != nil {
		it.err = err
		return false
	}
	it.current = Entry{Key: key, Value: value}
	return true
}

func (it *rowsIterator) Entry() Entry { return it.current }

func (it *rowsIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

func (it *rowsIterator) Close() error { return it.rows.Close() }
