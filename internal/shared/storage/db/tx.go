package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes that signal a conflict worth retrying.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03"
)

// InTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back on every other path, including panics.
func InTx(ctx context.Context, database *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) (err error) {
	tx, err := database.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// AdvisoryKey maps a lock name onto the int64 space of pg_advisory_xact_lock.
func AdvisoryKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("dealdocs:lock:" + name))
	return int64(h.Sum64())
}

// IsUniqueViolationOn reports whether err is a unique violation of the named
// constraint.
func IsUniqueViolationOn(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraint
}

// IsRetryable reports whether err is a conflict or connection failure that a
// fresh attempt of the same transaction may resolve.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation, codeLockNotAvailable:
			return true
		}
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	return pgconn.SafeToRetry(err)
}
