package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finbot/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable record store. Every operation is a single
// statement or transaction, so concurrent appends from different users never
// interleave partially.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const recordColumns = `id, user_id, type, amount_cents, currency, category,
	COALESCE(description, ''), COALESCE(raw_text, ''), created_at`

// Append stores one record and returns its assigned id. created_at is
// stamped in UTC at the moment of the call; a single offset keeps lexical
// comparison on the column chronological.
func (r *SQLiteRepository) Append(ctx context.Context, rec core.Record) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("validate record: %w", err)
	}

	createdAt := r.now().UTC().Format(core.TimestampLayout)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (user_id, type, amount_cents, currency, category, description, raw_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, string(rec.Type), rec.Amount.Cents, string(rec.Currency),
		rec.Category, rec.Description, rec.RawText, createdAt)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Record saved",
		"id", id,
		"user_id", rec.UserID,
		"type", rec.Type,
		"amount_cents", rec.Amount.Cents,
		"currency", rec.Currency,
		"category", rec.Category)

	return id, nil
}

// Query returns the user's records with created_at >= since, newest first.
// A non-nil typeFilter restricts the result to that transaction type.
func (r *SQLiteRepository) Query(ctx context.Context, userID int64, since string, typeFilter *core.TransactionType) ([]core.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE user_id = ? AND created_at >= ?`
	args := []any{userID, since}
	if typeFilter != nil {
		query += ` AND type = ?`
		args = append(args, string(*typeFilter))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// DeleteMostRecent deletes and returns the single newest record for the
// user. It returns (nil, nil) when the user has no records; select and
// delete run in one transaction.
func (r *SQLiteRepository) DeleteMostRecent(ctx context.Context, userID int64) (*core.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select newest record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, rec.ID); err != nil {
		return nil, fmt.Errorf("delete record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Record deleted",
		"id", rec.ID,
		"user_id", userID,
		"category", rec.Category,
		"amount_cents", rec.Amount.Cents)

	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var rec core.Record
	var typ, currency string
	err := row.Scan(&rec.ID, &rec.UserID, &typ, &rec.Amount.Cents, &currency,
		&rec.Category, &rec.Description, &rec.RawText, &rec.CreatedAt)
	if err != nil {
		return core.Record{}, err
	}
	rec.Type = core.TransactionType(typ)
	rec.Currency = core.Currency(currency)
	return rec, nil
}
