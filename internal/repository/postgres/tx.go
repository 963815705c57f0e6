package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Counter-bearing mutations run under serializable isolation; the store
// aborts one side of a write-conflict and we re-run the whole body.
const txAttempts = 3

var txOptions = pgx.TxOptions{IsoLevel: pgx.Serializable}

// isRetryable reports whether the transaction body should be re-run:
// 40001 serialization_failure, 40P01 deadlock_detected.
func isRetryable(err error) bool {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return false
	}
	return pg.Code == "40001" || pg.Code == "40P01"
}

// runTx executes fn inside a serializable transaction, retrying the whole
// body on write-conflict up to txAttempts times. fn must be idempotent up
// to its own writes, which roll back with the transaction.
func runTx(ctx context.Context, pool Pool, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = tryTx(ctx, pool, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return err
}

func tryTx(ctx context.Context, pool Pool, fn func(pgx.Tx) error) (err error) {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()
	return fn(tx)
}
