package pgutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRetryable marks a unit of work that lost an optimistic race and may be
// re-run from the start.
var ErrRetryable = errors.New("retryable transaction conflict")

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// TxRunner executes fn as one unit of work.
type TxRunner interface {
	InTx(ctx context.Context, fn func(*sql.Tx) error) error
}

// WithTx runs fn inside a transaction.
// It commits if fn returns nil, otherwise it rolls back.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil) // default isolation level
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, err)
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Runner is a TxRunner that re-runs units of work failing with a retryable
// error, up to maxAttempts times in total.
type Runner struct {
	db          *sql.DB
	maxAttempts int
}

var _ TxRunner = (*Runner)(nil)

func NewRunner(db *sql.DB, maxAttempts int) *Runner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Runner{db: db, maxAttempts: maxAttempts}
}

func (r *Runner) InTx(ctx context.Context, fn func(*sql.Tx) error) error {
	var err error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = WithTx(ctx, r.db, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}

		slog.Debug("retrying unit of work", "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			return errors.Join(err, ctx.Err())
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", r.maxAttempts, err)
}

// IsRetryable reports whether err is an optimistic-lock conflict or a
// postgres serialization/deadlock failure.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRetryable) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
	}

	return false
}

// IsUniqueViolation reports whether err is a postgres unique_violation,
// optionally restricted to the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}
